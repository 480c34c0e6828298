package tray

import (
	"testing"

	"github.com/PixPMusic/gopher-bind/internal/bank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMenu(t *testing.T) {
	banks := bank.NewStore()
	opened, quit := 0, 0
	menu, items := buildMenu(banks.Names(), banks.ActiveName(), banks.SwitchTo, Callbacks{
		OnOpen: func() { opened++ },
		OnQuit: func() { quit++ },
	})

	var labels []string
	for _, it := range menu.Items {
		if !it.IsSeparator {
			labels = append(labels, it.Label)
		}
	}
	assert.Equal(t, []string{"Open GopherBind", "Bank A", "Bank B", "Bank C", "Bank D", "Quit"}, labels)
	assert.True(t, items["A"].Checked)
	assert.False(t, items["B"].Checked)

	items["C"].Action()
	assert.Equal(t, "C", banks.ActiveName())

	markActive(items, "C")
	assert.True(t, items["C"].Checked)
	assert.False(t, items["A"].Checked)

	menu.Items[0].Action()
	menu.Items[len(menu.Items)-1].Action()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, quit)
}

func TestBuildMenuWithoutCallbacks(t *testing.T) {
	menu, _ := buildMenu([]string{"A"}, "A", func(string) error { return nil }, Callbacks{})
	require.NotEmpty(t, menu.Items)
	assert.NotPanics(t, func() { menu.Items[0].Action() })
}
