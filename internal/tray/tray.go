// Package tray puts the bank switcher in the system tray.
package tray

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"github.com/PixPMusic/gopher-bind/internal/bank"
)

// Callbacks for tray menu actions
type Callbacks struct {
	OnOpen func()
	OnQuit func()
}

// Setup initializes the system tray using Fyne's built-in support
func Setup(app fyne.App, banks *bank.Store, callbacks Callbacks) {
	desk, ok := app.(desktop.App)
	if !ok {
		return
	}

	menu, items := buildMenu(banks.Names(), banks.ActiveName(), banks.SwitchTo, callbacks)
	desk.SetSystemTrayMenu(menu)
	desk.SetSystemTrayIcon(theme.MediaMusicIcon())

	// Switches from controls or the window move the check mark too
	banks.OnChange(func(active bank.Bank, _ map[string]string) {
		fyne.Do(func() {
			markActive(items, active.Name)
			menu.Refresh()
		})
	})
}

// buildMenu lays out Open, one checkable item per bank, and Quit
func buildMenu(names []string, active string, switchTo func(string) error, callbacks Callbacks) (*fyne.Menu, map[string]*fyne.MenuItem) {
	openItem := fyne.NewMenuItem("Open GopherBind", func() {
		if callbacks.OnOpen != nil {
			callbacks.OnOpen()
		}
	})

	quitItem := fyne.NewMenuItem("Quit", func() {
		if callbacks.OnQuit != nil {
			callbacks.OnQuit()
		}
	})

	items := make(map[string]*fyne.MenuItem, len(names))
	menuItems := []*fyne.MenuItem{openItem, fyne.NewMenuItemSeparator()}
	for _, name := range names {
		name := name // per-iteration copy for the closure under go 1.21 loop semantics
		item := fyne.NewMenuItem("Bank "+name, func() {
			if err := switchTo(name); err != nil {
				log.Printf("Failed to switch to bank %s: %v", name, err)
			}
		})
		items[name] = item
		menuItems = append(menuItems, item)
	}
	menuItems = append(menuItems, fyne.NewMenuItemSeparator(), quitItem)

	markActive(items, active)
	return fyne.NewMenu("GopherBind", menuItems...), items
}

func markActive(items map[string]*fyne.MenuItem, active string) {
	for name, item := range items {
		item.Checked = name == active
	}
}
