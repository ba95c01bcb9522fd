package reviews

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinPerspectives(t *testing.T) {
	set := BuiltinPerspectives()
	assert.Equal(t, []string{"security", "performance", "quality"}, set.Names())

	for _, name := range set.Names() {
		p, ok := set.Get(name)
		require.True(t, ok)
		assert.Equal(t, name, p.Name)
		assert.NotEmpty(t, p.Instructions)
		assert.NotEmpty(t, p.FocusAreas)
		assert.True(t, p.Allows(SeverityCritical))
		assert.True(t, p.Allows(SeverityInfo))
		assert.False(t, p.Allows(Severity("catastrophic")))
	}
}

func TestResolve(t *testing.T) {
	set := BuiltinPerspectives()

	t.Run("empty selects all in order", func(t *testing.T) {
		ps, err := set.Resolve(nil)
		require.NoError(t, err)
		require.Len(t, ps, 3)
		assert.Equal(t, "security", ps[0].Name)
		assert.Equal(t, "quality", ps[2].Name)
	})

	t.Run("subset preserves caller order", func(t *testing.T) {
		ps, err := set.Resolve([]string{"quality", "security"})
		require.NoError(t, err)
		require.Len(t, ps, 2)
		assert.Equal(t, "quality", ps[0].Name)
		assert.Equal(t, "security", ps[1].Name)
	})

	t.Run("unknown perspective is a validation error", func(t *testing.T) {
		_, err := set.Resolve([]string{"security", "style"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestPrompts(t *testing.T) {
	p := securityPerspective(t)
	sub := Submission{Code: "SELECT 1", Language: "sql", Filename: "q.sql"}

	system := SystemPrompt(p)
	assert.Contains(t, system, "security expert")
	assert.Contains(t, system, `"issues"`)

	user := UserPrompt(p, sub)
	assert.Contains(t, user, "Filename: q.sql")
	assert.Contains(t, user, "Language: sql")
	assert.Contains(t, user, "SELECT 1")
	assert.Contains(t, user, "Focus areas:")
}
