package console

import (
	tea "github.com/charmbracelet/bubbletea"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

func buildMenuTree(m *Model) *Menu {
	a := &actions{service: m.service}

	root := &Menu{
		Title: "Auction Console",
		Items: []MenuItem{
			{Label: "Summary", Action: a.Summary},
			{Label: "Team budgets", Action: a.Budgets},
			{Label: "Unsold pool ->", Submenu: loadUnsoldMenu(a)},
			{Label: "Reset auction ->", Submenu: loadResetMenu(a)},
			{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
		},
	}

	linkParents(root, nil)

	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

func loadUnsoldMenu(a *actions) *Menu {
	return &Menu{
		Title: "Unsold pool",
		Items: []MenuItem{
			{Label: "All unsold", Action: a.Unsold("")},
			{Label: "Male", Action: a.Unsold("male")},
			{Label: "Female", Action: a.Unsold("female")},
			{Label: "Random pick", Action: a.RandomPick},
			{Label: "Back"},
		},
	}
}

func loadResetMenu(a *actions) *Menu {
	return &Menu{
		Title: "Reset auction",
		Items: []MenuItem{
			{Label: "Confirm reset (clears every sale)", Action: a.Reset},
			{Label: "Back"},
		},
	}
}
