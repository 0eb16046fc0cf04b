// Package interactive provides the interactive command-line interface
// for hapctl.
package interactive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/hapbridge/hap-go/pkg/inspect"
	"github.com/hapbridge/hap-go/pkg/server"
	"github.com/hapbridge/hap-go/pkg/subscription"
	"github.com/hapbridge/hap-go/pkg/wire"
)

// Session is the subscription session used for writes and events issued from
// the shell.
const Session = "shell"

// Shell handles interactive mode for hapctl.
type Shell struct {
	db        *server.Database
	inspector *inspect.Inspector
	formatter *inspect.Formatter
	out       io.Writer

	cancelChanges func()
}

// New creates a shell for db writing to out. Run replaces out with the
// readline output.
func New(db *server.Database, out io.Writer) *Shell {
	if out == nil {
		out = os.Stdout
	}
	s := &Shell{
		db:        db,
		inspector: inspect.NewInspector(db),
		formatter: inspect.NewFormatter(),
		out:       out,
	}

	s.cancelChanges = db.Subscribe(s.handleChange)
	db.Subscriptions().OnNotification(s.handleNotification)

	return s
}

// Close detaches the shell from the database.
func (s *Shell) Close() {
	s.cancelChanges()
	s.db.Subscriptions().OnNotification(nil)
	s.db.Subscriptions().RemoveSession(Session)
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "hap> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	s.out = rl.Stdout()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return nil
		}

		if !s.Execute(line) {
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return nil
		}
	}
}

// Execute runs one command line. It returns false when the shell should
// exit.
func (s *Shell) Execute(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "list", "ls":
		s.cmdList()

	case "inspect", "i":
		s.cmdInspect(args)

	case "read", "r":
		s.cmdRead(args)

	case "write", "w":
		s.cmdWrite(args)

	case "update", "u":
		s.cmdUpdate(args)

	case "events", "ev":
		s.cmdEvents(args)

	case "subs":
		s.cmdSubs()

	case "dump":
		s.cmdDump()

	case "save":
		s.cmdSave()

	case "quit", "exit", "q":
		return false

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
HAP Bridge Commands:
  Inspection:
    list               - List accessories
    inspect [path]     - Inspect the bridge (or one accessory/service/characteristic)
    dump               - Print the /accessories document

  Characteristics:
    read <path>            - Read a value as HomeKit sees it
    write <path> <val>     - Write a value as HomeKit
    update <path> <val>    - Report a value from the device
    events <path> on|off   - Enable or disable events for this shell
    subs                   - List event subscriptions of this shell

  General:
    save               - Persist accessory and instance ids
    help               - Show this help
    quit               - Exit

  Path Format:
    aid/service/characteristic - e.g., 2/Lightbulb/Brightness
    aid/iid or aid.iid         - e.g., 2/10 or 2.10`)
}

func (s *Shell) parsePath(arg string) (*inspect.Path, bool) {
	path, err := inspect.ParsePath(arg)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid path: %v\n", err)
		return nil, false
	}
	return path, true
}

// cmdList handles the list command.
func (s *Shell) cmdList() {
	tree := s.inspector.InspectBridge()
	if len(tree.Accessories) == 0 {
		fmt.Fprintln(s.out, "No accessories")
		return
	}
	for _, acc := range tree.Accessories {
		fmt.Fprintf(s.out, "  [%d] %s (%s, %d services)\n", acc.AID, acc.Name, acc.Category, len(acc.Services))
	}
}

// cmdInspect handles the inspect command.
func (s *Shell) cmdInspect(args []string) {
	if len(args) == 0 {
		fmt.Fprint(s.out, s.inspector.FormatBridgeTree(s.inspector.InspectBridge(), s.formatter))
		return
	}

	path, ok := s.parsePath(args[0])
	if !ok {
		return
	}

	switch {
	case path.IsPartial && path.Service == "":
		acc, err := s.inspector.InspectAccessory(path.AID)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		fmt.Fprint(s.out, s.inspector.FormatAccessory(acc, s.formatter))
	case path.IsPartial:
		svc, err := s.inspector.InspectService(path)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		fmt.Fprint(s.out, s.inspector.FormatService(svc, s.formatter))
	default:
		c, err := s.inspector.Resolve(path)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(s.out, s.inspector.FormatCharacteristic(c, s.formatter))
	}
}

// cmdRead handles the read command.
func (s *Shell) cmdRead(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: read <path>")
		fmt.Fprintln(s.out, "  Example: read 2/Lightbulb/Brightness")
		return
	}

	path, ok := s.parsePath(args[0])
	if !ok {
		return
	}

	value, info, err := s.inspector.ReadCharacteristic(path)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "%s = %s\n", info.Name, s.formatter.FormatValue(value, info.Unit))
}

// cmdWrite handles the write command.
func (s *Shell) cmdWrite(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: write <path> <value>")
		fmt.Fprintln(s.out, "  Example: write 2/Lightbulb/On true")
		return
	}

	path, ok := s.parsePath(args[0])
	if !ok {
		return
	}

	value := inspect.ParseValue(strings.Join(args[1:], " "))
	if err := s.inspector.WriteCharacteristic(Session, path, value); err != nil {
		fmt.Fprintf(s.out, "Write failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Wrote %v to %s\n", value, path)
}

// cmdUpdate handles the update command.
func (s *Shell) cmdUpdate(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: update <path> <value>")
		fmt.Fprintln(s.out, "  Example: update 2/Lightbulb/ColorRed 255")
		return
	}

	path, ok := s.parsePath(args[0])
	if !ok {
		return
	}

	value := inspect.ParseValue(strings.Join(args[1:], " "))
	if err := s.inspector.UpdateCharacteristic(path, value); err != nil {
		fmt.Fprintf(s.out, "Update failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Updated %s to %v\n", path, value)
}

// cmdEvents handles the events command.
func (s *Shell) cmdEvents(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: events <path> on|off")
		return
	}

	path, ok := s.parsePath(args[0])
	if !ok {
		return
	}

	var enable bool
	switch strings.ToLower(args[1]) {
	case "on", "true", "1":
		enable = true
	case "off", "false", "0":
	default:
		fmt.Fprintf(s.out, "Invalid events state: %s (must be on or off)\n", args[1])
		return
	}

	info, err := s.inspector.Resolve(path)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	resp := s.db.WriteCharacteristics(Session, wire.CharacteristicWriteRequest{
		Characteristics: []wire.CharacteristicWrite{{AID: path.AID, IID: info.IID, Events: &enable}},
	})
	if status := resp.Characteristics[0].Status; status != wire.StatusSuccess {
		fmt.Fprintf(s.out, "Events failed: %s (%d)\n", status, status)
		return
	}

	state := "disabled"
	if enable {
		state = "enabled"
	}
	fmt.Fprintf(s.out, "Events %s for %s.%s\n", state, info.Service, info.Name)
}

// cmdSubs handles the subs command.
func (s *Shell) cmdSubs() {
	sub, err := s.db.Subscriptions().Get(Session)
	if err != nil || sub.Len() == 0 {
		fmt.Fprintln(s.out, "No subscriptions")
		return
	}
	for _, id := range sub.IDs() {
		fmt.Fprintf(s.out, "  %d.%d\n", id.AID, id.IID)
	}
}

// cmdDump handles the dump command.
func (s *Shell) cmdDump() {
	data, err := json.MarshalIndent(s.db.Accessories(), "", "  ")
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, string(data))
}

// cmdSave handles the save command.
func (s *Shell) cmdSave() {
	if err := s.db.Save(); err != nil {
		fmt.Fprintf(s.out, "Save failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "State saved")
}

func (s *Shell) handleChange(c server.Change) {
	fmt.Fprintf(s.out, "[CHANGE] %d.%d %s.%s = %v (%s)\n",
		c.AID, c.IID, c.Service, c.Characteristic, c.Value, c.Source)
}

func (s *Shell) handleNotification(n subscription.Notification) {
	if n.Session != Session {
		return
	}
	data, err := json.Marshal(n.Body())
	if err != nil {
		return
	}
	fmt.Fprintf(s.out, "[EVENT] %s\n", data)
}
