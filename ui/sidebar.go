package ui

import (
	"fmt"
	"strings"

	"brief-copilot/db"
	"brief-copilot/utils"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const sidebarLimit = 100

// displayTitle returns the title shown for a saved brief
func displayTitle(b *db.Brief) string {
	if strings.TrimSpace(b.Title) == "" {
		return "Brief sans titre"
	}
	return b.Title
}

func briefStatus(b *db.Brief) string {
	if b.IsComplete {
		return "✅ Terminé"
	}
	return "📝 En cours"
}

// BriefItem represents a clickable saved brief with context menu
type BriefItem struct {
	widget.BaseWidget
	app         *App
	brief       *db.Brief
	label       *widget.Label
	status      *widget.Label
	onTapped    func()
	highlighted bool
}

// NewBriefItem creates a new brief item
func NewBriefItem(app *App, b *db.Brief, snippet string, onTapped func()) *BriefItem {
	item := &BriefItem{
		app:      app,
		brief:    b,
		onTapped: onTapped,
	}
	item.label = widget.NewLabel(displayTitle(b))
	item.label.Truncation = fyne.TextTruncateEllipsis

	statusText := briefStatus(b) + " · " + b.UpdatedAt.Format("02/01/2006")
	if snippet != "" {
		statusText = stripMarks(snippet)
	}
	item.status = widget.NewLabel(statusText)
	item.status.TextStyle = fyne.TextStyle{Italic: true}
	item.status.Truncation = fyne.TextTruncateEllipsis

	item.ExtendBaseWidget(item)
	return item
}

// stripMarks removes the highlight markers of a search snippet
func stripMarks(snippet string) string {
	return strings.NewReplacer("<mark>", "", "</mark>", "").Replace(snippet)
}

// CreateRenderer creates the renderer for the brief item
func (bi *BriefItem) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewVBox(bi.label, bi.status))
}

// Tapped handles left-click
func (bi *BriefItem) Tapped(_ *fyne.PointEvent) {
	if bi.onTapped != nil {
		bi.onTapped()
	}
}

// TappedSecondary handles right-click
func (bi *BriefItem) TappedSecondary(pe *fyne.PointEvent) {
	bi.showContextMenu(pe.AbsolutePosition)
}

// showContextMenu shows the context menu for this brief
func (bi *BriefItem) showContextMenu(pos fyne.Position) {
	openItem := fyne.NewMenuItem("Ouvrir", func() {
		bi.app.openBrief(bi.brief.ID)
	})

	exportJSONItem := fyne.NewMenuItem("Exporter en JSON", func() {
		bi.app.exportBrief(bi.brief.ID, utils.FormatJSON)
	})

	exportMarkdownItem := fyne.NewMenuItem("Exporter en Markdown", func() {
		bi.app.exportBrief(bi.brief.ID, utils.FormatMarkdown)
	})

	deleteItem := fyne.NewMenuItem("Supprimer", func() {
		bi.app.deleteBriefByID(bi.brief.ID)
	})

	menu := fyne.NewMenu("", openItem, exportJSONItem, exportMarkdownItem, fyne.NewMenuItemSeparator(), deleteItem)
	popupMenu := widget.NewPopUpMenu(menu, bi.app.window.Canvas())
	popupMenu.ShowAtPosition(pos)
}

// SetHighlighted sets the highlighted state
func (bi *BriefItem) SetHighlighted(highlighted bool) {
	if bi.highlighted == highlighted {
		return
	}
	bi.highlighted = highlighted
	if highlighted {
		bi.label.TextStyle = fyne.TextStyle{Bold: true}
	} else {
		bi.label.TextStyle = fyne.TextStyle{}
	}
	bi.label.Refresh()
}

// BriefSidebar lists the saved briefs of the current user
type BriefSidebar struct {
	widget.BaseWidget
	app         *App
	items       []*BriefItem
	list        *fyne.Container
	searchEntry *widget.Entry
	statsLabel  *widget.Label
	filterText  string
	activeID    string
}

// NewBriefSidebar creates a new brief sidebar
func NewBriefSidebar(app *App) *BriefSidebar {
	sidebar := &BriefSidebar{
		app:        app,
		list:       container.NewVBox(),
		statsLabel: widget.NewLabel(""),
	}
	sidebar.statsLabel.TextStyle = fyne.TextStyle{Italic: true}

	sidebar.searchEntry = widget.NewEntry()
	sidebar.searchEntry.SetPlaceHolder("🔍 Rechercher un brief...")
	sidebar.searchEntry.OnChanged = func(text string) {
		sidebar.filterText = strings.TrimSpace(text)
		sidebar.updateList()
	}

	sidebar.ExtendBaseWidget(sidebar)
	sidebar.updateList()
	return sidebar
}

// CreateRenderer creates the renderer for the sidebar
func (bs *BriefSidebar) CreateRenderer() fyne.WidgetRenderer {
	content := container.NewBorder(
		container.NewVBox(widget.NewLabelWithStyle("Mes briefs", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), bs.searchEntry),
		bs.statsLabel,
		nil, nil,
		container.NewScroll(bs.list),
	)
	return widget.NewSimpleRenderer(content)
}

// searchResults returns the briefs matching the filter, full-text first and
// then by title substring
func (bs *BriefSidebar) searchResults() []*db.SearchResult {
	if bs.filterText != "" {
		results, err := bs.app.db.SearchBriefs(bs.app.userID, bs.filterText, sidebarLimit)
		if err != nil {
			bs.app.logger.Debug("Full-text search failed, filtering titles: %v", err)
		} else if len(results) > 0 {
			return results
		}
		// Full-text search only matches whole words; partial titles still match below
	}

	briefs, err := bs.app.db.ListBriefs(bs.app.userID, sidebarLimit, 0)
	if err != nil {
		bs.app.logger.Error("Failed to load briefs: %v", err)
		return nil
	}

	results := make([]*db.SearchResult, 0, len(briefs))
	for _, b := range briefs {
		if bs.filterText != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(bs.filterText)) {
			continue
		}
		results = append(results, &db.SearchResult{Brief: b})
	}
	return results
}

// updateList reloads the brief list and the counters
func (bs *BriefSidebar) updateList() {
	if bs.list == nil {
		return
	}

	bs.items = []*BriefItem{}
	bs.list.Objects = []fyne.CanvasObject{}

	for _, result := range bs.searchResults() {
		b := result.Brief
		item := NewBriefItem(bs.app, b, result.Snippet, func() {
			bs.app.openBrief(b.ID)
		})
		if b.ID == bs.activeID {
			item.SetHighlighted(true)
		}
		bs.items = append(bs.items, item)
		bs.list.Add(item)
		bs.list.Add(widget.NewSeparator())
	}

	if len(bs.items) == 0 {
		bs.list.Add(widget.NewLabel("Aucun brief sauvegardé"))
	}

	bs.updateStats()
}

func (bs *BriefSidebar) updateStats() {
	stats, err := bs.app.db.GetStats(bs.app.userID)
	if err != nil {
		bs.app.logger.Warn("Failed to load brief stats: %v", err)
		bs.statsLabel.SetText("")
		return
	}
	bs.statsLabel.SetText(fmt.Sprintf("%d briefs · %d terminés · %d fiches de poste",
		stats.TotalBriefs, stats.CompleteBriefs, stats.JobPostings))
}

// updateHighlight updates the highlight state for all items
func (bs *BriefSidebar) updateHighlight(activeID string) {
	bs.activeID = activeID
	for _, item := range bs.items {
		item.SetHighlighted(activeID != "" && item.brief.ID == activeID)
	}
}

// Refresh refreshes the sidebar
func (bs *BriefSidebar) Refresh() {
	fyne.Do(func() {
		bs.updateList()
		bs.BaseWidget.Refresh()
	})
}
