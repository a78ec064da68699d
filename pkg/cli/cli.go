// Package cli is a small hand-rolled flag parser and help-page generator,
// trimmed from the B compiler's App/FlagSet framework to what lamac needs:
// plain string/bool flags, no warning/feature groups.
package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"
)

type IndentState struct {
	levels   []uint8
	baseUnit uint8
}

func NewIndentState() *IndentState {
	return &IndentState{levels: []uint8{0}, baseUnit: 4}
}

func (is *IndentState) AtLevel(level int) string {
	return strings.Repeat(" ", int(is.baseUnit*uint8(level)))
}

type Value interface {
	String() string
	Set(string) error
}

type stringValue struct{ p *string }

func (v *stringValue) Set(s string) error { *v.p = s; return nil }
func (v *stringValue) String() string     { return *v.p }

type boolValue struct{ p *bool }

func (v *boolValue) Set(s string) error {
	if s == "" {
		*v.p = true
		return nil
	}
	val, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean value '%s': %w", s, err)
	}
	*v.p = val
	return nil
}
func (v *boolValue) String() string { return strconv.FormatBool(*v.p) }

type Flag struct {
	Name         string
	Shorthand    string
	Usage        string
	Value        Value
	DefValue     string
	ExpectedType string
}

type FlagSet struct {
	name       string
	flags      map[string]*Flag
	shorthands map[string]*Flag
	order      []*Flag
	args       []string
}

func NewFlagSet(name string) *FlagSet {
	return &FlagSet{name: name, flags: make(map[string]*Flag), shorthands: make(map[string]*Flag)}
}

func (f *FlagSet) Args() []string { return f.args }

func (f *FlagSet) String(p *string, name, shorthand, value, usage, expectedType string) {
	*p = value
	f.var_(&stringValue{p}, name, shorthand, usage, value, expectedType)
}

func (f *FlagSet) Bool(p *bool, name, shorthand string, value bool, usage string) {
	*p = value
	f.var_(&boolValue{p}, name, shorthand, usage, strconv.FormatBool(value), "")
}

func (f *FlagSet) var_(value Value, name, shorthand, usage, defValue, expectedType string) {
	flag := &Flag{Name: name, Shorthand: shorthand, Usage: usage, Value: value, DefValue: defValue, ExpectedType: expectedType}
	if _, ok := f.flags[name]; ok {
		panic(fmt.Sprintf("flag redefined: %s", name))
	}
	f.flags[name] = flag
	f.order = append(f.order, flag)
	if shorthand != "" {
		f.shorthands[shorthand] = flag
	}
}

func (f *FlagSet) Parse(arguments []string) error {
	f.args = []string{}
	for i := 0; i < len(arguments); i++ {
		arg := arguments[i]
		if len(arg) < 2 || arg[0] != '-' {
			f.args = append(f.args, arg)
			continue
		}
		if arg == "--" {
			f.args = append(f.args, arguments[i+1:]...)
			break
		}
		var name, inlineVal string
		hasInline := false
		if strings.HasPrefix(arg, "--") {
			name = arg[2:]
		} else {
			name = arg[1:]
		}
		if idx := strings.Index(name, "="); idx >= 0 {
			inlineVal = name[idx+1:]
			name = name[:idx]
			hasInline = true
		}
		flag, ok := f.flags[name]
		if !ok {
			flag, ok = f.shorthands[name]
		}
		if !ok {
			return fmt.Errorf("unknown flag: %s", arg)
		}
		if _, isBool := flag.Value.(*boolValue); isBool {
			if hasInline {
				if err := flag.Value.Set(inlineVal); err != nil {
					return err
				}
			} else if err := flag.Value.Set(""); err != nil {
				return err
			}
			continue
		}
		if hasInline {
			if err := flag.Value.Set(inlineVal); err != nil {
				return err
			}
			continue
		}
		if i+1 >= len(arguments) {
			return fmt.Errorf("flag needs an argument: %s", arg)
		}
		i++
		if err := flag.Value.Set(arguments[i]); err != nil {
			return err
		}
	}
	return nil
}

type App struct {
	Name        string
	Synopsis    string
	Description string
	Authors     []string
	Repository  string
	Since       int
	FlagSet     *FlagSet
	Action      func(args []string) error
}

func NewApp(name string) *App {
	return &App{Name: name, FlagSet: NewFlagSet(name)}
}

func (a *App) Run(arguments []string) error {
	help := false
	a.FlagSet.Bool(&help, "help", "h", false, "Display this information")

	if err := a.FlagSet.Parse(arguments); err != nil {
		fmt.Fprintln(os.Stderr, err)
		a.generateUsagePage(os.Stderr)
		return err
	}
	if help {
		a.generateHelpPage(os.Stdout)
		return nil
	}
	if a.Action != nil {
		return a.Action(a.FlagSet.Args())
	}
	return nil
}

func (a *App) formatFlagString(flag *Flag) string {
	var sb strings.Builder
	_, isBool := flag.Value.(*boolValue)
	if flag.Shorthand != "" {
		fmt.Fprintf(&sb, "-%s, --%s", flag.Shorthand, flag.Name)
	} else {
		fmt.Fprintf(&sb, "--%s", flag.Name)
	}
	if !isBool && flag.ExpectedType != "" {
		fmt.Fprintf(&sb, " <%s>", flag.ExpectedType)
	}
	return sb.String()
}

func (a *App) generateUsagePage(w *os.File) {
	fmt.Fprintf(w, "Usage: %s <options> <input.lama>\n", a.Name)
	fmt.Fprintf(w, "Run '%s --help' for all available options.\n", a.Name)
}

func (a *App) generateHelpPage(w *os.File) {
	var sb strings.Builder
	termWidth := getTerminalWidth()
	indent := NewIndentState()

	year := time.Now().Year()
	fmt.Fprintf(&sb, "\n%sCopyright (c) %d: %s\n", indent.AtLevel(1), year, strings.Join(a.Authors, ", ")+" and contributors")
	if a.Repository != "" {
		fmt.Fprintf(&sb, "%sFor more details refer to %s\n", indent.AtLevel(1), a.Repository)
	}
	if a.Synopsis != "" {
		fmt.Fprintf(&sb, "\n%sSynopsis\n%s%s %s\n", indent.AtLevel(1), indent.AtLevel(2), a.Name, a.Synopsis)
	}
	if a.Description != "" {
		fmt.Fprintf(&sb, "\n%sDescription\n%s%s\n", indent.AtLevel(1), indent.AtLevel(2), a.Description)
	}

	flags := make([]*Flag, len(a.FlagSet.order))
	copy(flags, a.FlagSet.order)
	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })

	maxWidth := 0
	for _, flag := range flags {
		if w := len(a.formatFlagString(flag)); w > maxWidth {
			maxWidth = w
		}
	}

	fmt.Fprintf(&sb, "\n%sOptions\n", indent.AtLevel(1))
	wrapWidth := termWidth - maxWidth - len(indent.AtLevel(2)) - 4
	for _, flag := range flags {
		left := a.formatFlagString(flag)
		lines := wrapText(flag.Usage, wrapWidth)
		first := ""
		if len(lines) > 0 {
			first = lines[0]
		}
		fmt.Fprintf(&sb, "%s%-*s  %s\n", indent.AtLevel(2), maxWidth, left, first)
		for _, extra := range lines[1:] {
			fmt.Fprintf(&sb, "%s%s  %s\n", indent.AtLevel(2), strings.Repeat(" ", maxWidth), extra)
		}
	}
	fmt.Fprint(w, sb.String())
}

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 20 {
		return 80
	}
	return width
}

func wrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		maxWidth = 40
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}
	var lines []string
	var line strings.Builder
	for _, word := range words {
		if line.Len()+len(word)+1 > maxWidth && line.Len() > 0 {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
