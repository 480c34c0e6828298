package window

import (
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/PixPMusic/gopher-bind/internal/bank"
	"github.com/PixPMusic/gopher-bind/internal/binding"
	"github.com/PixPMusic/gopher-bind/internal/curve"
	"github.com/PixPMusic/gopher-bind/internal/learn"
)

// ============ BINDINGS TAB ============

func (mw *MainWindow) createBindingsTab() fyne.CanvasObject {
	header := widget.NewLabel("Bindings")
	header.TextStyle = fyne.TextStyle{Bold: true}

	mw.bankSelect = widget.NewSelect(mw.deps.Banks.Names(), func(name string) {
		if name == mw.shownBank {
			return
		}
		if err := mw.deps.Banks.SwitchTo(name); err != nil {
			log.Printf("Failed to switch bank: %v", err)
			dialog.ShowError(err, mw.window)
		}
	})
	bankRow := container.NewHBox(widget.NewLabel("Active bank"), mw.bankSelect)
	toolbar := container.NewBorder(nil, nil, header, bankRow)

	headerControl := widget.NewLabel("Control")
	headerControl.TextStyle = fyne.TextStyle{Bold: true}
	headerCurve := widget.NewLabel("Curve")
	headerCurve.TextStyle = fyne.TextStyle{Bold: true}
	headerInvert := widget.NewLabel("Inverted")
	headerInvert.TextStyle = fyne.TextStyle{Bold: true}
	headerMove := widget.NewLabel("Move To")
	headerMove.TextStyle = fyne.TextStyle{Bold: true}
	headerActions := widget.NewLabel("")

	columnHeaders := container.NewGridWithColumns(5,
		headerControl, headerCurve, headerInvert, headerMove, headerActions,
	)

	mw.bindingList = widget.NewList(
		func() int { return len(mw.rows) },
		func() fyne.CanvasObject { return mw.createBindingRow() },
		func(id widget.ListItemID, obj fyne.CanvasObject) { mw.updateBindingRow(id, obj) },
	)
	mw.bindingList.OnSelected = func(id widget.ListItemID) {
		if id < len(mw.rows) {
			mw.selectedID = mw.rows[id].ID
			mw.preview.show(mw.rows[id].Behavior)
		}
	}

	mw.preview = newCurveView()
	responseHeader := widget.NewLabelWithStyle("Response", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	previewPane := container.NewBorder(responseHeader, nil, nil, nil, mw.preview.content)

	listPane := container.NewBorder(
		container.NewVBox(toolbar, widget.NewSeparator(), columnHeaders),
		nil, nil, nil,
		mw.bindingList,
	)
	split := container.NewHSplit(listPane, previewPane)
	split.Offset = 0.72

	return container.NewBorder(
		nil,
		container.NewVBox(widget.NewSeparator(), mw.createLearnPanel()),
		nil, nil,
		split,
	)
}

func (mw *MainWindow) createBindingRow() fyne.CanvasObject {
	controlLabel := widget.NewLabel("")
	controlLabel.Truncation = fyne.TextTruncateEllipsis

	curveSelect := widget.NewSelect(presetNames(), nil)
	curveSelect.PlaceHolder = "Curve"

	invertCheck := widget.NewCheck("", nil)

	moveSelect := widget.NewSelect([]string{}, nil)
	moveSelect.PlaceHolder = "Bank"

	removeBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)

	return container.NewGridWithColumns(5,
		controlLabel, curveSelect, invertCheck, moveSelect,
		container.NewCenter(removeBtn),
	)
}

func (mw *MainWindow) updateBindingRow(id widget.ListItemID, obj fyne.CanvasObject) {
	if id >= len(mw.rows) {
		return
	}

	b := mw.rows[id]
	grid := obj.(*fyne.Container)

	controlLabel := grid.Objects[0].(*widget.Label)
	curveSelect := grid.Objects[1].(*widget.Select)
	invertCheck := grid.Objects[2].(*widget.Check)
	moveSelect := grid.Objects[3].(*widget.Select)
	removeBtn := grid.Objects[4].(*fyne.Container).Objects[0].(*widget.Button)

	bindingID := b.ID
	controlLabel.SetText(describeBinding(b))

	// Rows are recycled; drop the old row's handlers before setting values
	curveSelect.OnChanged = nil
	curveSelect.SetSelected(presetName(b.Behavior))
	curveSelect.OnChanged = func(s string) { mw.setPreset(bindingID, s) }

	invertCheck.OnChanged = nil
	invertCheck.SetChecked(b.Behavior.Direction == binding.Inverted)
	invertCheck.OnChanged = func(on bool) { mw.setInverted(bindingID, on) }

	moveSelect.OnChanged = nil
	moveSelect.Options = otherBanks(mw.deps.Banks.Names(), mw.shownBank)
	moveSelect.ClearSelected()
	moveSelect.OnChanged = func(s string) { mw.moveBinding(bindingID, s) }

	removeBtn.OnTapped = func() { mw.confirmRemove(bindingID) }
}

// showBank redraws the tab for active. It must not call into the bank
// store: it runs from store listeners.
func (mw *MainWindow) showBank(active bank.Bank) {
	mw.shownBank = active.Name
	mw.bankSelect.SetSelected(active.Name)
	mw.rows = active.Sorted()
	mw.bindingList.Refresh()

	for _, b := range mw.rows {
		if b.ID == mw.selectedID {
			mw.preview.show(b.Behavior)
			return
		}
	}
	mw.selectedID = ""
	mw.bindingList.UnselectAll()
	mw.preview.clear()
}

func (mw *MainWindow) editBinding(id string, fn func(*binding.Binding)) {
	bk, err := mw.deps.Banks.Bank(mw.shownBank)
	if err != nil {
		log.Printf("Failed to read bank %s: %v", mw.shownBank, err)
		return
	}
	b, ok := bk.Bindings[id]
	if !ok {
		return
	}
	b = b.Clone()
	fn(b)
	if err := mw.deps.Banks.UpdateBinding(mw.shownBank, b); err != nil {
		log.Printf("Failed to update binding: %v", err)
		dialog.ShowError(err, mw.window)
	}
}

func (mw *MainWindow) setPreset(id, name string) {
	p, ok := curve.Lookup(name)
	if !ok {
		return
	}
	mw.editBinding(id, func(b *binding.Binding) { b.ApplyPreset(p) })
}

func (mw *MainWindow) setInverted(id string, on bool) {
	mw.editBinding(id, func(b *binding.Binding) {
		if on {
			b.Behavior.Direction = binding.Inverted
		} else {
			b.Behavior.Direction = binding.Normal
		}
	})
}

func (mw *MainWindow) moveBinding(id, to string) {
	if to == "" {
		return
	}
	if err := mw.deps.Banks.MoveBinding(id, mw.shownBank, to); err != nil {
		log.Printf("Failed to move binding: %v", err)
		dialog.ShowError(err, mw.window)
	}
}

func (mw *MainWindow) confirmRemove(id string) {
	for _, b := range mw.rows {
		if b.ID == id {
			dialog.ShowConfirm("Remove Binding", "Remove "+describeBinding(b)+"?",
				func(confirm bool) {
					if confirm {
						mw.removeBinding(id)
					}
				}, mw.window)
			return
		}
	}
}

func (mw *MainWindow) removeBinding(id string) {
	if err := mw.deps.Banks.RemoveBinding(mw.shownBank, id); err != nil {
		log.Printf("Failed to remove binding: %v", err)
		dialog.ShowError(err, mw.window)
	}
}

// ============ LEARN PANEL ============

func (mw *MainWindow) createLearnPanel() fyne.CanvasObject {
	header := widget.NewLabel("Learn")
	header.TextStyle = fyne.TextStyle{Bold: true}

	mw.paramSelect = widget.NewSelect(mw.deps.Catalog.Paths(), nil)
	mw.paramSelect.PlaceHolder = "Parameter"

	mw.filterSelect = widget.NewSelect(filterOptions(), nil)
	mw.filterSelect.SetSelected(anyFilter)

	learnBtn := widget.NewButtonWithIcon("Learn", theme.MediaRecordIcon(), mw.startLearn)
	learnBtn.Importance = widget.HighImportance

	cancelBtn := widget.NewButtonWithIcon("Cancel", theme.CancelIcon(), func() {
		mw.deps.Learner.Cancel()
	})

	clearBtn := widget.NewButtonWithIcon("Clear", theme.ContentClearIcon(), mw.clearTarget)

	mw.learnLabel = widget.NewLabel(learnStatus(nil))

	controls := container.NewHBox(header, mw.paramSelect, mw.filterSelect, learnBtn, cancelBtn, clearBtn)
	return container.NewVBox(controls, mw.learnLabel)
}

func (mw *MainWindow) startLearn() {
	d, ok := mw.deps.Catalog.FindByPath(mw.paramSelect.Selected)
	if !ok {
		dialog.ShowInformation("Learn", "Pick a parameter to bind first.", mw.window)
		return
	}

	// LFOs run all the time, so only an explicit filter may learn them
	s := mw.deps.Learner.Start(d, filterValue(mw.filterSelect.Selected),
		learn.Excluding(binding.FamilyLFO),
		learn.OnDone(func(learn.Outcome) {
			fyne.Do(func() { mw.learnLabel.SetText(learnStatus(mw.deps.Learner.Current())) })
		}),
	)
	mw.learnLabel.SetText(learnStatus(s))
}

func (mw *MainWindow) clearTarget() {
	path := mw.paramSelect.Selected
	family, ok := clearFamily(filterValue(mw.filterSelect.Selected))
	if path == "" || !ok {
		dialog.ShowInformation("Clear", "Pick a parameter and a source filter to clear.", mw.window)
		return
	}
	n, err := mw.deps.Banks.Supersede(mw.shownBank, path, family)
	if err != nil {
		log.Printf("Failed to clear bindings: %v", err)
		dialog.ShowError(err, mw.window)
		return
	}
	mw.learnLabel.SetText(fmt.Sprintf("Removed %d %s binding(s) for %s from bank %s", n, family, path, mw.shownBank))
}
