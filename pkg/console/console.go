// Copyright © 2026 Niko Carpenter <niko@nikocarpenter.com>
//
// This source code is governed by the MIT license, which can be found in the LICENSE file.

// Package console renders an intercom session as text, and reads operator commands.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/n0ot/intercomctl/pkg/session"
)

// DefaultHistorySize is the number of log lines kept when none is configured.
const DefaultHistorySize = 1000

// SelectFunc is called when the selection of a device list changes.
type SelectFunc func(list session.DeviceList, id *int)

type deviceList struct {
	options  []session.Option
	selected *int
}

// Console is a session.Renderer that writes to a terminal.
//
// Replacing a device list with a different selection reports the change to
// the SelectFunc, from inside SetDevices.
type Console struct {
	lock     sync.Mutex // Protects everything below, and serializes writes to out
	out      io.Writer
	history  *History
	vad      string
	volume   string
	lists    [2]deviceList
	onSelect SelectFunc
}

// New creates a console writing to out, remembering up to historySize log lines.
func New(out io.Writer, historySize int) *Console {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Console{
		out:     out,
		history: NewHistory(historySize),
		vad:     "?",
		volume:  session.UnknownVolume,
	}
}

// OnSelect sets the function told about selection changes.
func (con *Console) OnSelect(f SelectFunc) {
	con.lock.Lock()
	con.onSelect = f
	con.lock.Unlock()
}

// AppendLog prints a log line.
func (con *Console) AppendLog(line string) {
	con.lock.Lock()
	defer con.lock.Unlock()
	con.history.Push(line)
	fmt.Fprintln(con.out, line)
}

// AppendNotice prints a control line.
func (con *Console) AppendNotice(line string) {
	con.lock.Lock()
	defer con.lock.Unlock()
	con.history.Push("** " + line)
	fmt.Fprintf(con.out, "** %s\n", line)
}

// SetStatus updates the voice activity and volume display.
// Only changes are printed, as status arrives several times a second.
func (con *Console) SetStatus(vad, volume string) {
	con.lock.Lock()
	defer con.lock.Unlock()
	if vad == con.vad && volume == con.volume {
		return
	}
	con.vad, con.volume = vad, volume
	con.printStatus()
}

// SetDevices replaces a device list.
func (con *Console) SetDevices(list session.DeviceList, options []session.Option, selected *int) {
	con.lock.Lock()
	l := &con.lists[list]
	changed := !sameID(l.selected, selected)
	l.options = append([]session.Option(nil), options...)
	l.selected = selected
	onSelect := con.onSelect
	con.lock.Unlock()

	if changed && onSelect != nil {
		onSelect(list, selected)
	}
}

// SelectDevice changes the selection of a device list.
func (con *Console) SelectDevice(list session.DeviceList, selected *int) {
	con.lock.Lock()
	defer con.lock.Unlock()
	con.lists[list].selected = selected
	fmt.Fprintf(con.out, "Selected %s device: %s\n", list, con.label(list, selected))
}

// Status gets the voice activity and volume labels.
func (con *Console) Status() (vad, volume string) {
	con.lock.Lock()
	defer con.lock.Unlock()
	return con.vad, con.volume
}

// Selected gets the selected ID of a device list.
func (con *Console) Selected(list session.DeviceList) *int {
	con.lock.Lock()
	defer con.lock.Unlock()
	return con.lists[list].selected
}

// Options gets the options of a device list.
func (con *Console) Options(list session.DeviceList) []session.Option {
	con.lock.Lock()
	defer con.lock.Unlock()
	return append([]session.Option(nil), con.lists[list].options...)
}

// PrintStatus prints the voice activity and volume.
func (con *Console) PrintStatus() {
	con.lock.Lock()
	defer con.lock.Unlock()
	con.printStatus()
}

// PrintDevices prints both device lists, marking the selections.
func (con *Console) PrintDevices() {
	con.lock.Lock()
	defer con.lock.Unlock()
	for _, list := range []session.DeviceList{session.InputDevices, session.OutputDevices} {
		l := con.lists[list]
		fmt.Fprintf(con.out, "%s:\n", listTitle(list))
		if len(l.options) == 0 {
			fmt.Fprintln(con.out, "    (waiting for the server)")
			continue
		}
		for _, opt := range l.options {
			mark := " "
			if sameID(opt.ID, l.selected) {
				mark = "*"
			}
			fmt.Fprintf(con.out, "  %s %s\n", mark, opt.Label)
		}
	}
}

// PrintHistory prints up to n of the newest log lines.
func (con *Console) PrintHistory(n int) {
	con.lock.Lock()
	defer con.lock.Unlock()
	for _, line := range con.history.Last(n) {
		fmt.Fprintln(con.out, line)
	}
}

// Println prints a line that isn't part of the event log.
func (con *Console) Println(a ...interface{}) {
	con.lock.Lock()
	defer con.lock.Unlock()
	fmt.Fprintln(con.out, a...)
}

func (con *Console) printStatus() {
	fmt.Fprintf(con.out, "Voice activity: %s  Volume: %s\n", con.vad, con.volume)
}

func (con *Console) label(list session.DeviceList, id *int) string {
	for _, opt := range con.lists[list].options {
		if sameID(opt.ID, id) {
			return opt.Label
		}
	}
	if id == nil {
		return session.NoneLabel
	}
	return fmt.Sprintf("Card %d", *id)
}

func listTitle(list session.DeviceList) string {
	if list == session.InputDevices {
		return "Microphones"
	}
	return "Speakers"
}

func sameID(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
