package window

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/PixPMusic/gopher-bind/internal/config"
)

// ============ DEVICES TAB ============

func (mw *MainWindow) createDevicesTab() fyne.CanvasObject {
	portsHeader := widget.NewLabel("MIDI Inputs")
	portsHeader.TextStyle = fyne.TextStyle{Bold: true}

	rescanBtn := widget.NewButtonWithIcon("Rescan", theme.ViewRefreshIcon(), func() {
		mw.refreshPorts()
	})

	portsToolbar := container.NewBorder(nil, nil, portsHeader, rescanBtn)
	hint := widget.NewLabel("With no input checked, every input is used.")

	headerPort := widget.NewLabel("Port")
	headerPort.TextStyle = fyne.TextStyle{Bold: true}
	headerListen := widget.NewLabel("Listen")
	headerListen.TextStyle = fyne.TextStyle{Bold: true}
	headerStatus := widget.NewLabel("Status")
	headerStatus.TextStyle = fyne.TextStyle{Bold: true}

	columnHeaders := container.NewGridWithColumns(3, headerPort, headerListen, headerStatus)

	mw.portList = widget.NewList(
		func() int { return len(mw.ports) },
		func() fyne.CanvasObject { return mw.createPortRow() },
		func(id widget.ListItemID, obj fyne.CanvasObject) { mw.updatePortRow(id, obj) },
	)

	portsPane := container.NewBorder(
		container.NewVBox(portsToolbar, hint, widget.NewSeparator(), columnHeaders),
		nil, nil, nil,
		mw.portList,
	)

	lfoHeader := widget.NewLabel("LFOs")
	lfoHeader.TextStyle = fyne.TextStyle{Bold: true}

	mw.lfoList = widget.NewList(
		func() int { return len(mw.lfoKeys) },
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil, nil,
				widget.NewButtonWithIcon("", theme.DeleteIcon(), nil),
				widget.NewLabel(""))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id >= len(mw.lfoKeys) {
				return
			}
			key := mw.lfoKeys[id]
			row := obj.(*fyne.Container)
			row.Objects[0].(*widget.Label).SetText(key)
			row.Objects[1].(*widget.Button).OnTapped = func() { mw.removeLFO(key) }
		},
	)

	lfoPane := container.NewBorder(container.NewVBox(widget.NewSeparator(), lfoHeader), nil, nil, nil, mw.lfoList)

	mw.heldLabel = widget.NewLabel(heldText(nil))
	pathLabel := widget.NewLabel("Config: " + mw.deps.File.Path())

	split := container.NewVSplit(portsPane, lfoPane)
	split.Offset = 0.65

	return container.NewBorder(
		nil,
		container.NewVBox(widget.NewSeparator(), mw.heldLabel, pathLabel),
		nil, nil,
		split,
	)
}

func (mw *MainWindow) createPortRow() fyne.CanvasObject {
	return container.NewGridWithColumns(3,
		widget.NewLabel(""),
		widget.NewCheck("", nil),
		widget.NewLabel(""),
	)
}

func (mw *MainWindow) updatePortRow(id widget.ListItemID, obj fyne.CanvasObject) {
	if id >= len(mw.ports) {
		return
	}

	p := mw.ports[id]
	grid := obj.(*fyne.Container)

	nameLabel := grid.Objects[0].(*widget.Label)
	listenCheck := grid.Objects[1].(*widget.Check)
	statusLabel := grid.Objects[2].(*widget.Label)

	nameLabel.SetText(p.Name)
	statusLabel.SetText(p.status())

	name := p.Name
	listenCheck.OnChanged = nil
	listenCheck.SetChecked(p.Wanted)
	listenCheck.OnChanged = func(on bool) { mw.setPortWanted(name, on) }
}

func (mw *MainWindow) refreshPorts() {
	mw.ports = portRows(mw.deps.Ports.ListInPorts(), mw.deps.File.InPorts(), mw.deps.Ports.Listening())
	mw.portList.Refresh()
}

// setPortWanted saves the input selection and hands it to the running manager
func (mw *MainWindow) setPortWanted(name string, on bool) {
	wanted := setWanted(mw.deps.File.InPorts(), name, on)
	if err := mw.deps.File.Update(func(c *config.Config) { c.InPorts = wanted }); err != nil {
		log.Printf("Failed to save config: %v", err)
		dialog.ShowError(err, mw.window)
	}
	mw.deps.Ports.SetWanted(wanted)
	mw.refreshPorts()
}

func (mw *MainWindow) refreshLFOs() {
	mw.lfoKeys = mw.deps.LFOs.Keys()
	mw.lfoList.Refresh()
}

// removeLFO stops an oscillator and drops it from the config
func (mw *MainWindow) removeLFO(key string) {
	mw.deps.LFOs.Remove(key)
	err := mw.deps.File.Update(func(cfg *config.Config) { cfg.RemoveLFO(key) })
	if err != nil {
		log.Printf("Failed to save config: %v", err)
		dialog.ShowError(err, mw.window)
	}
	mw.refreshLFOs()
}
