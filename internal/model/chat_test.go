package model

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAdd_EvictsOldestBeyondCapacity(t *testing.T) {
	const maxTurns = 3
	ctx := NewContext(maxTurns)

	// Add 2*maxTurns + 4 turns; only the most recent 2*maxTurns survive.
	total := 2*maxTurns + 4
	for i := 0; i < total; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		ctx.Add(Turn{Role: role, Content: fmt.Sprintf("msg-%d", i), Timestamp: time.Now()})
	}

	require.Len(t, ctx.Turns, 2*maxTurns)
	// Chronological order of the remainder is preserved.
	for i, turn := range ctx.Turns {
		assert.Equal(t, fmt.Sprintf("msg-%d", total-2*maxTurns+i), turn.Content)
	}
}

func TestContextAdd_NoEvictionUnderCapacity(t *testing.T) {
	ctx := NewContext(3)
	ctx.Add(Turn{Role: RoleUser, Content: "hello"})
	ctx.Add(Turn{Role: RoleAssistant, Content: "hi there"})

	assert.Len(t, ctx.Turns, 2)
	assert.Equal(t, "hello", ctx.Turns[0].Content)
}

func TestContextRender(t *testing.T) {
	ctx := NewContext(3)
	ctx.Add(Turn{Role: RoleUser, Content: "find me a laptop"})
	ctx.Add(Turn{Role: RoleAssistant, Content: "Here are some options."})

	rendered := ctx.Render()
	assert.Equal(t, "User: find me a laptop\nAssistant: Here are some options.", rendered)
}

func TestContextRender_Empty(t *testing.T) {
	ctx := NewContext(3)
	assert.Equal(t, "", ctx.Render())
}
