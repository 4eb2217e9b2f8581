package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elee1766/playground/src/catalog"
	"github.com/elee1766/playground/src/chat"
)

func TestPlainStylesLeaveTextAlone(t *testing.T) {
	s := NewStyles(true)

	assert.Equal(t, "installed", s.Kind(catalog.KindInstalled))
	assert.Equal(t, "you", s.Speaker(chat.Message{Role: chat.RoleUser}))
	assert.Equal(t, "assistant", s.Speaker(chat.Message{Role: chat.RoleAssistant}))
	assert.Equal(t, "assistant", s.Speaker(chat.Message{Role: chat.RoleAssistant, IsError: true}))
	assert.Equal(t, "Hi there", s.Body(chat.Message{Content: "Hi there"}))
}

func TestStylesCoverEveryKind(t *testing.T) {
	s := NewStyles(false)
	for _, k := range []catalog.Kind{catalog.KindInstalled, catalog.KindPullable, catalog.KindCatalogOnly} {
		_, ok := s.Kinds[k]
		assert.True(t, ok, "missing style for %s", k)
		assert.Contains(t, s.Kind(k), k.String())
	}
}

func TestSetTheme(t *testing.T) {
	saved := CurrentTheme
	t.Cleanup(func() { SetTheme(saved) })

	custom := saved
	custom.Primary = "#000000"
	SetTheme(custom)
	assert.Equal(t, custom, CurrentTheme)
}
