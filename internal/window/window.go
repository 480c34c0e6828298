// Package window is the desktop editor for banks, bindings and inputs.
package window

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/PixPMusic/gopher-bind/internal/bank"
	"github.com/PixPMusic/gopher-bind/internal/binding"
	"github.com/PixPMusic/gopher-bind/internal/catalog"
	"github.com/PixPMusic/gopher-bind/internal/config"
	"github.com/PixPMusic/gopher-bind/internal/keys"
	"github.com/PixPMusic/gopher-bind/internal/learn"
	"github.com/PixPMusic/gopher-bind/internal/lfo"
)

// Ports lists MIDI inputs and sets which ones to listen on
type Ports interface {
	ListInPorts() []string
	Listening() []string
	SetWanted([]string)
}

// Deps are the services the window edits and drives
type Deps struct {
	File    *config.File
	Catalog *catalog.Catalog
	Banks   *bank.Store
	Learner *learn.Learner
	Ports   Ports
	Keys    *keys.Keyboard
	LFOs    *lfo.Runner
}

// MainWindow manages the main application window
type MainWindow struct {
	window fyne.Window
	app    fyne.App
	deps   Deps

	// Bindings tab state
	bankSelect   *widget.Select
	shownBank    string
	rows         []*binding.Binding
	bindingList  *widget.List
	selectedID   string
	preview      *curveView
	paramSelect  *widget.Select
	filterSelect *widget.Select
	learnLabel   *widget.Label

	// Devices tab state
	ports     []portRow
	portList  *widget.List
	lfoKeys   []string
	lfoList   *widget.List
	heldLabel *widget.Label
}

// NewMainWindow creates the main application window
func NewMainWindow(app fyne.App, d Deps) *MainWindow {
	win := app.NewWindow("GopherBind")

	mw := &MainWindow{
		window: win,
		app:    app,
		deps:   d,
	}

	mw.setupUI()

	win.Resize(fyne.NewSize(950, 660))
	win.CenterOnScreen()

	win.SetCloseIntercept(func() {
		win.Hide()
	})

	// Key presses in the window drive the keyboard source
	if dc, ok := win.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(ev *fyne.KeyEvent) { mw.keyDown(string(ev.Name)) })
		dc.SetOnKeyUp(func(ev *fyne.KeyEvent) { mw.keyUp(string(ev.Name)) })
	}

	// Listeners run under the store lock, so the UI only gets the copy it is handed
	d.Banks.OnChange(func(active bank.Bank, _ map[string]string) {
		fyne.Do(func() { mw.showBank(active) })
	})

	return mw
}

func (mw *MainWindow) setupUI() {
	bindingsTab := container.NewTabItem("Bindings", mw.createBindingsTab())
	devicesTab := container.NewTabItem("Devices", mw.createDevicesTab())

	tabs := container.NewAppTabs(bindingsTab, devicesTab)
	tabs.SetTabLocation(container.TabLocationTop)

	mw.window.SetContent(tabs)
}

func (mw *MainWindow) keyDown(name string) {
	mw.deps.Keys.Press(name)
	mw.heldLabel.SetText(heldText(mw.deps.Keys.Held()))
}

func (mw *MainWindow) keyUp(name string) {
	mw.deps.Keys.Release(name)
	mw.heldLabel.SetText(heldText(mw.deps.Keys.Held()))
}

// Show displays the window
func (mw *MainWindow) Show() {
	mw.refreshPorts()
	mw.refreshLFOs()
	mw.showBank(mw.deps.Banks.Active())
	mw.window.Show()
}

// Hide hides the window
func (mw *MainWindow) Hide() {
	mw.window.Hide()
}

// Window returns the underlying fyne.Window
func (mw *MainWindow) Window() fyne.Window {
	return mw.window
}
