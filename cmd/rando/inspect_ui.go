package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/rando-engine/pkg/randomize"
	"github.com/jwebster45206/rando-engine/pkg/resource"
	"github.com/jwebster45206/rando-engine/pkg/spoilertext"
	"github.com/jwebster45206/rando-engine/pkg/whatif"
)

// entry is one editable line of the inventory panel: an item or a flag.
type entry struct {
	item   resource.Item
	flag   string
	isFlag bool
}

// InspectUI is the BubbleTea model of the inspect command.
// https://github.com/charmbracelet/bubbletea
type InspectUI struct {
	r         *randomize.Randomizer
	state     *whatif.State
	reach     *whatif.Reachability
	locations []whatif.LocationStatus

	entries []entry
	cursor  int

	locViewport viewport.Model
	invViewport viewport.Model
	ready       bool
	width       int
	height      int
	status      string
	err         error

	showQuitModal bool

	// copy writes the report to the clipboard.
	copy func(string) error
}

type copiedMsg struct {
	err error
}

var (
	locPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2)

	invPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	bireachableStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("86")) // green

	reachableStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	unreachableStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")) // dark grey

	heldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("205")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewInspectUI(r *randomize.Randomizer, copyFn func(string) error) InspectUI {
	m := InspectUI{
		r:           r,
		state:       whatif.New(r),
		locViewport: viewport.New(60, 20),
		invViewport: viewport.New(20, 20),
		copy:        copyFn,
	}
	for _, item := range resource.AllItems() {
		m.entries = append(m.entries, entry{item: item})
	}
	for _, flag := range r.Graph().Flags {
		m.entries = append(m.entries, entry{flag: flag, isFlag: true})
	}
	m.refresh()
	return m
}

// refresh recomputes reachability after an edit.
func (m *InspectUI) refresh() {
	m.reach = m.state.UpdateReachability()
	m.locations = m.state.Locations(m.reach)
}

func (m InspectUI) tierName() string {
	return m.r.Tiers()[m.state.Tier].Name
}

// count is how many of item are held; expansions stack.
func count(g *resource.GlobalState, item resource.Item) int {
	switch item {
	case resource.Missile:
		return g.MaxMissiles / resource.AmmoPerExpansion
	case resource.Super:
		return g.MaxSupers / resource.AmmoPerExpansion
	case resource.PowerBomb:
		return g.MaxPowerBombs / resource.AmmoPerExpansion
	case resource.ETank:
		return (g.MaxEnergy - resource.BaseEnergy) / resource.EnergyPerTank
	case resource.ReserveTank:
		return g.MaxReserves / resource.ReservePerTank
	}
	if g.Has(item) {
		return 1
	}
	return 0
}

func stacks(item resource.Item) bool {
	switch item {
	case resource.Missile, resource.Super, resource.PowerBomb, resource.ETank, resource.ReserveTank:
		return true
	}
	return false
}

func (m InspectUI) held(e entry) bool {
	if e.isFlag {
		idx, _ := m.r.Graph().FlagIndex(e.flag)
		return m.state.Global.HasFlag(idx)
	}
	return m.state.Global.Has(e.item)
}

// add collects the entry, or toggles it off when it is held and does not stack.
func (m *InspectUI) add(e entry) error {
	if e.isFlag {
		if m.held(e) {
			return m.state.RemoveFlag(e.flag)
		}
		return m.state.AddFlag(e.flag)
	}
	if m.held(e) && !stacks(e.item) {
		m.state.RemoveItem(e.item)
		return nil
	}
	m.state.AddItem(e.item)
	return nil
}

func (m *InspectUI) remove(e entry) error {
	if e.isFlag {
		return m.state.RemoveFlag(e.flag)
	}
	if m.held(e) {
		m.state.RemoveItem(e.item)
	}
	return nil
}

func (m InspectUI) Init() tea.Cmd {
	return nil
}

func (m InspectUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		lvCmd tea.Cmd
		ivCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		locWidth := int(float64(m.width)*0.7) - 2
		invWidth := m.width - locWidth - 4
		m.locViewport.Width = locWidth - 2
		m.locViewport.Height = m.height - 4
		m.invViewport.Width = invWidth
		m.invViewport.Height = m.height - 4
		m.ready = true
		m.writeContent()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			m.move(-1)
			return m, nil
		case tea.KeyDown:
			m.move(1)
			return m, nil
		case tea.KeyEnter, tea.KeySpace:
			m.edit(m.add)
			return m, nil
		case tea.KeyBackspace:
			m.edit(m.remove)
			return m, nil
		case tea.KeyRunes:
			switch msg.String() {
			case "q":
				m.showQuitModal = true
				return m, nil
			case "k":
				m.move(-1)
				return m, nil
			case "j":
				m.move(1)
				return m, nil
			case "+":
				m.edit(m.add)
				return m, nil
			case "-":
				m.edit(m.remove)
				return m, nil
			case "t":
				m.state.Tier = (m.state.Tier + 1) % len(m.r.Tiers())
				m.refresh()
				m.status = "Tier: " + m.tierName()
				m.writeContent()
				return m, nil
			case "c":
				return m, m.copyReport()
			}
		}

	case copiedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.status = "Report copied to clipboard"
		}
		m.writeContent()
		return m, nil
	}

	// Page keys and the mouse wheel scroll the location list.
	m.locViewport, lvCmd = m.locViewport.Update(msg)
	m.invViewport, ivCmd = m.invViewport.Update(msg)
	return m, tea.Batch(lvCmd, ivCmd)
}

func (m *InspectUI) move(delta int) {
	m.cursor = min(max(m.cursor+delta, 0), len(m.entries)-1)
	m.writeContent()
}

func (m *InspectUI) edit(apply func(entry) error) {
	if err := apply(m.entries[m.cursor]); err != nil {
		m.err = err
	} else {
		m.err = nil
		m.status = ""
	}
	m.refresh()
	m.writeContent()
}

func (m InspectUI) copyReport() tea.Cmd {
	report := m.report(80)
	copyFn := m.copy
	return func() tea.Msg {
		return copiedMsg{err: copyFn(report)}
	}
}

// writeContent renders both panels for the current size.
func (m *InspectUI) writeContent() {
	if !m.ready {
		return
	}
	m.locViewport.SetContent(m.writeLocations(m.locViewport.Width))
	m.invViewport.SetContent(m.writeInventory())

	// Keep the cursor on screen.
	line := m.cursor + 2
	if line < m.invViewport.YOffset {
		m.invViewport.SetYOffset(line)
	} else if line >= m.invViewport.YOffset+m.invViewport.Height {
		m.invViewport.SetYOffset(line - m.invViewport.Height + 1)
	}
}

func (m InspectUI) tally() (total, bireachable, reachable int) {
	for _, loc := range m.locations {
		if loc.Save {
			continue
		}
		total++
		switch {
		case loc.Bireachable:
			bireachable++
		case loc.Reachable:
			reachable++
		}
	}
	return total, bireachable, reachable
}

func (m InspectUI) writeLocations(width int) string {
	var content strings.Builder
	start := m.r.Start()
	content.WriteString(titleStyle.Render("RANDO INSPECT") + "\n\n")
	header := fmt.Sprintf("Start %s, tier %s. ", start.Name, m.tierName())
	total, bi, reach := m.tally()
	header += fmt.Sprintf("%d of %d locations bireachable, %d reachable one way.", bi, total, reach)
	content.WriteString(wordwrap.String(header, max(width, 20)) + "\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(width-2, 1))) + "\n\n")

	for _, loc := range m.locations {
		line := fmt.Sprintf("%s (room %d, node %d)", loc.Name, loc.Room, loc.Node)
		if loc.Save {
			line = fmt.Sprintf("%s (save, room %d, node %d)", loc.Name, loc.Room, loc.Node)
		}
		switch {
		case loc.Bireachable:
			content.WriteString(bireachableStyle.Render("● " + line))
		case loc.Reachable:
			content.WriteString(reachableStyle.Render("◐ " + line))
		default:
			content.WriteString(unreachableStyle.Render("○ " + line))
		}
		content.WriteString("\n")
	}

	content.WriteString("\n")
	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	} else if m.status != "" {
		content.WriteString(promptStyle.Render(m.status) + "\n")
	}
	return content.String()
}

func (m InspectUI) writeInventory() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("INVENTORY") + "\n\n")
	for i, e := range m.entries {
		label := ""
		if e.isFlag {
			label = spoilertext.Humanize(e.flag)
		} else {
			label = spoilertext.Humanize(e.item.String())
			if n := count(&m.state.Global, e.item); stacks(e.item) && n > 0 {
				label += fmt.Sprintf(" x%d", n)
			}
		}

		switch {
		case i == m.cursor:
			content.WriteString(selectedStyle.Render("▶ " + label))
		case m.held(e):
			content.WriteString(heldStyle.Render("  " + label))
		default:
			content.WriteString(unreachableStyle.Render("  " + label))
		}
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString("Keys:\n")
	content.WriteString("• ↑/↓: Select\n")
	content.WriteString("• Enter: Add/toggle\n")
	content.WriteString("• Backspace: Remove\n")
	content.WriteString("• t: Next tier\n")
	content.WriteString("• c: Copy report\n")
	content.WriteString("• Esc: Quit\n")
	return content.String()
}

// report is a plain-text snapshot of the current inventory and what it reaches.
func (m InspectUI) report(width int) string {
	var held, flags, bi, one, none, saves []string
	for _, e := range m.entries {
		if !m.held(e) {
			continue
		}
		if e.isFlag {
			flags = append(flags, spoilertext.Humanize(e.flag))
			continue
		}
		name := spoilertext.Humanize(e.item.String())
		if stacks(e.item) {
			name += fmt.Sprintf(" x%d", count(&m.state.Global, e.item))
		}
		held = append(held, name)
	}
	for _, loc := range m.locations {
		if loc.Save {
			if loc.Bireachable {
				saves = append(saves, loc.Name)
			}
			continue
		}
		switch {
		case loc.Bireachable:
			bi = append(bi, loc.Name)
		case loc.Reachable:
			one = append(one, loc.Name)
		default:
			none = append(none, loc.Name)
		}
	}

	list := func(names []string) string {
		if len(names) == 0 {
			return "none"
		}
		return strings.Join(names, ", ")
	}
	var b strings.Builder
	for _, line := range []string{
		fmt.Sprintf("Start: %s, tier %s", m.r.Start().Name, m.tierName()),
		"Items: " + list(held),
		"Flags: " + list(flags),
		"Bireachable: " + list(bi),
		"Reachable one way: " + list(one),
		"Unreachable: " + list(none),
		"Saves: " + list(saves),
	} {
		b.WriteString(wordwrap.String(line, width))
		b.WriteByte('\n')
	}
	return b.String()
}

func (m InspectUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}
	}
	return m, nil
}

func (m InspectUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Edits are not saved.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m InspectUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	locWidth := int(float64(m.width)*0.7) - 2
	invWidth := m.width - locWidth - 4

	locPanel := locPanelStyle.Width(locWidth).Height(m.height - 2).Render(m.locViewport.View())
	invPanel := invPanelStyle.Width(invWidth).Height(m.height - 2).Render(m.invViewport.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, locPanel, invPanel)
}
