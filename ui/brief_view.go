package ui

import (
	"errors"
	"strings"

	"brief-copilot/brief"
	"brief-copilot/db"
	"brief-copilot/utils"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// customEntry extends Entry to send on Ctrl+Enter
type customEntry struct {
	widget.Entry
	onCtrlEnter func()
}

// TypedShortcut handles keyboard shortcuts
func (e *customEntry) TypedShortcut(shortcut fyne.Shortcut) {
	if ks, ok := shortcut.(*desktop.CustomShortcut); ok {
		if (ks.KeyName == fyne.KeyReturn || ks.KeyName == fyne.KeyEnter) &&
			ks.Modifier == desktop.ControlModifier {
			if e.onCtrlEnter != nil {
				e.onCtrlEnter()
			}
			return
		}
	}
	e.Entry.TypedShortcut(shortcut)
}

// messageRow is the rendered form of one conversation message
type messageRow struct {
	isAI    bool
	role    *widget.Label
	content *widget.Label
}

// BriefView shows one brief session: the conversation on the left, the
// requirement summary on the right
type BriefView struct {
	app     *App
	session *brief.Session

	messagesContainer *fyne.Container
	messagesScroll    *container.Scroll
	rows              []*messageRow

	titleEntry     *widget.Entry
	inputEntry     *customEntry
	sendButton     *widget.Button
	saveButton     *widget.Button
	generateButton *widget.Button
	progress       *widget.ProgressBar
	jobPosting     *widget.Label
	viewPosting    *widget.Button

	checks     map[string]*widget.Check
	itemLabels map[string]*widget.Label

	// syncing is set while checks are updated from the session
	syncing bool
}

// NewBriefView creates a view bound to session
func NewBriefView(app *App, session *brief.Session) *BriefView {
	return &BriefView{
		app:        app,
		session:    session,
		checks:     make(map[string]*widget.Check),
		itemLabels: make(map[string]*widget.Label),
	}
}

// Build builds the brief view UI
func (bv *BriefView) Build() fyne.CanvasObject {
	bv.messagesContainer = container.NewVBox()
	bv.messagesScroll = container.NewScroll(bv.messagesContainer)
	bv.messagesScroll.SetMinSize(fyne.NewSize(500, 400))

	bv.titleEntry = widget.NewEntry()
	bv.titleEntry.SetPlaceHolder("Intitulé du poste")
	bv.titleEntry.SetText(bv.session.Title())
	bv.titleEntry.OnChanged = func(text string) {
		if strings.TrimSpace(text) != bv.session.Title() {
			bv.session.SetTitle(text)
		}
	}

	bv.inputEntry = &customEntry{}
	bv.inputEntry.MultiLine = true
	bv.inputEntry.Wrapping = fyne.TextWrapWord
	bv.inputEntry.SetPlaceHolder("Décrivez votre besoin... (Ctrl+Enter pour envoyer)")
	bv.inputEntry.SetMinRowsVisible(3)
	bv.inputEntry.onCtrlEnter = func() {
		bv.sendMessage()
	}
	bv.inputEntry.ExtendBaseWidget(bv.inputEntry)

	bv.sendButton = widget.NewButton("Envoyer", func() {
		bv.sendMessage()
	})
	bv.sendButton.Importance = widget.HighImportance

	suggestions := container.NewGridWithColumns(2)
	for _, suggestion := range brief.Suggestions {
		text := suggestion
		button := widget.NewButton(text, func() {
			bv.inputEntry.SetText(text)
			bv.app.window.Canvas().Focus(bv.inputEntry)
		})
		button.Importance = widget.LowImportance
		button.Alignment = widget.ButtonAlignLeading
		suggestions.Add(button)
	}

	inputContainer := container.NewBorder(nil, nil, nil, bv.sendButton, bv.inputEntry)
	chatPane := container.NewBorder(
		container.NewBorder(nil, nil, widget.NewLabel("Poste :"), nil, bv.titleEntry),
		container.NewVBox(suggestions, inputContainer),
		nil, nil,
		bv.messagesScroll,
	)

	split := container.NewHSplit(chatPane, bv.buildSummary())
	split.SetOffset(0.62)

	bv.session.OnChange(func() {
		fyne.Do(bv.refresh)
	})
	bv.refresh()

	return split
}

// buildSummary builds the requirement summary panel
func (bv *BriefView) buildSummary() fyne.CanvasObject {
	header := widget.NewLabelWithStyle("Résumé du besoin", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	bv.progress = widget.NewProgressBar()

	sections := container.NewVBox()
	for _, category := range brief.Categories {
		name := category

		check := widget.NewCheck(brief.CategoryLabel(name), func(checked bool) {
			if bv.syncing {
				return
			}
			bv.session.SetCategory(name, checked)
		})
		bv.checks[name] = check

		items := widget.NewLabel("")
		items.Wrapping = fyne.TextWrapWord
		bv.itemLabels[name] = items

		editButton := widget.NewButton("✏️", func() {
			bv.editCategory(name)
		})
		editButton.Importance = widget.LowImportance

		sections.Add(container.NewBorder(nil, nil, nil, editButton, check))
		sections.Add(items)
		sections.Add(widget.NewSeparator())
	}

	bv.saveButton = widget.NewButton("💾 Sauvegarder", func() {
		bv.save()
	})

	bv.generateButton = widget.NewButton("📄 Générer la fiche de poste", func() {
		bv.generateJobPosting()
	})
	bv.generateButton.Importance = widget.HighImportance

	bv.jobPosting = widget.NewLabel("")
	bv.jobPosting.Wrapping = fyne.TextWrapWord
	bv.viewPosting = widget.NewButton("👁 Voir", func() {
		bv.showJobPosting()
	})
	bv.viewPosting.Importance = widget.LowImportance

	return container.NewBorder(
		container.NewVBox(header, bv.progress),
		container.NewVBox(
			container.NewBorder(nil, nil, nil, bv.viewPosting, bv.jobPosting),
			bv.saveButton,
			bv.generateButton,
		),
		nil, nil,
		container.NewVScroll(sections),
	)
}

// refresh renders the session state; it must run on the UI goroutine
func (bv *BriefView) refresh() {
	bv.renderMessages()

	req := bv.session.Requirements()
	flags := bv.session.Flags()

	bv.syncing = true
	for name, check := range bv.checks {
		if check.Checked != flags[name] {
			check.SetChecked(flags[name])
		}
	}
	bv.syncing = false

	for name, label := range bv.itemLabels {
		items := req.Items(name)
		if len(items) == 0 {
			label.SetText("Non renseigné")
			continue
		}
		label.SetText("• " + strings.Join(items, "\n• "))
	}

	bv.progress.SetValue(float64(bv.session.Progress()) / 100)

	if strings.TrimSpace(bv.titleEntry.Text) != bv.session.Title() {
		bv.titleEntry.SetText(bv.session.Title())
	}

	if bv.session.JobPostingID() != "" {
		bv.jobPosting.SetText("✅ Fiche de poste générée")
		bv.viewPosting.Show()
	} else {
		bv.jobPosting.SetText("")
		bv.viewPosting.Hide()
	}

	sending := bv.session.Sending()
	if sending {
		bv.sendButton.Disable()
	} else {
		bv.sendButton.Enable()
	}
	if bv.session.IsComplete() && !sending {
		bv.generateButton.Enable()
	} else {
		bv.generateButton.Disable()
	}
}

// renderMessages reuses existing rows so a streaming reply only updates one label
func (bv *BriefView) renderMessages() {
	messages := bv.session.Messages()

	if len(messages) < len(bv.rows) {
		bv.rows = nil
		bv.messagesContainer.Objects = nil
	}

	for i, msg := range messages {
		if i < len(bv.rows) && bv.rows[i].isAI == msg.IsAI {
			if bv.rows[i].content.Text != msg.Content {
				bv.rows[i].content.SetText(msg.Content)
			}
			continue
		}
		if i < len(bv.rows) {
			// Roles changed under us; rebuild from here
			bv.rows = bv.rows[:i]
			bv.messagesContainer.Objects = bv.messagesContainer.Objects[:i]
		}
		row := newMessageRow(msg)
		bv.rows = append(bv.rows, row)
		bv.messagesContainer.Add(container.NewVBox(row.role, row.content))
	}

	bv.messagesContainer.Refresh()
	bv.messagesScroll.ScrollToBottom()
}

func newMessageRow(msg brief.Message) *messageRow {
	roleText := "👤 Vous"
	if msg.IsAI {
		roleText = "🤖 Assistant"
	}
	role := widget.NewLabelWithStyle(roleText, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	content := widget.NewLabel(msg.Content)
	content.Wrapping = fyne.TextWrapWord
	content.Selectable = true

	return &messageRow{isAI: msg.IsAI, role: role, content: content}
}

// sendMessage sends the input text and streams the reply in the background
func (bv *BriefView) sendMessage() {
	text := bv.inputEntry.Text
	if strings.TrimSpace(text) == "" || bv.session.Sending() {
		return
	}

	bv.inputEntry.SetText("")
	bv.sendButton.Disable()

	utils.SafeGo(bv.app.logger, "sendMessage", func() {
		err := bv.session.Send(bv.app.ctx, text)
		if errors.Is(err, brief.ErrSendInProgress) {
			bv.app.setStatus("⏳ Une réponse est déjà en cours")
		} else if err != nil {
			bv.app.logger.Error("Failed to send message: %v", err)
		}
		fyne.Do(bv.refresh)
	})
}

// save persists the brief and refreshes the saved list
func (bv *BriefView) save() {
	utils.SafeGo(bv.app.logger, "saveBrief", func() {
		if err := bv.session.Save(bv.app.ctx); err != nil {
			return
		}
		id := bv.session.ID()
		fyne.Do(func() {
			bv.app.sidebar.updateList()
			bv.app.sidebar.updateHighlight(id)
		})
	})
}

// generateJobPosting creates a job posting draft from the complete brief
func (bv *BriefView) generateJobPosting() {
	if !bv.session.IsComplete() {
		bv.app.setStatus("ℹ️ Validez toutes les sections du résumé avant de générer la fiche de poste")
		return
	}

	bv.generateButton.Disable()
	utils.SafeGo(bv.app.logger, "generateJobPosting", func() {
		// The session notifies the outcome
		_, err := bv.session.GenerateJobPosting(bv.app.ctx)
		fyne.Do(func() {
			bv.refresh()
			if err != nil {
				return
			}
			bv.app.sidebar.updateList()
			bv.app.sidebar.updateHighlight(bv.session.ID())
		})
	})
}

// editCategory opens a form to edit the items of one category, one per line
func (bv *BriefView) editCategory(category string) {
	entry := widget.NewMultiLineEntry()
	entry.Wrapping = fyne.TextWrapWord
	entry.SetMinRowsVisible(5)
	entry.SetText(strings.Join(bv.session.Requirements().Items(category), "\n"))

	form := dialog.NewForm(brief.CategoryLabel(category), "Enregistrer", "Annuler",
		[]*widget.FormItem{widget.NewFormItem("Un élément par ligne", entry)},
		func(ok bool) {
			if !ok {
				return
			}
			items := strings.Split(entry.Text, "\n")
			bv.session.UpdateRequirements(func(req *brief.Requirements) {
				req.SetItems(category, items)
			})
		}, bv.app.window)
	form.Resize(fyne.NewSize(480, 320))
	form.Show()
}

// showJobPosting shows the job posting generated from this brief
func (bv *BriefView) showJobPosting() {
	id := bv.session.JobPostingID()
	if id == "" {
		return
	}
	posting, err := bv.app.db.GetJobPosting(id)
	if err != nil {
		bv.app.logger.Error("Failed to load job posting %s: %v", id, err)
		bv.app.showError("Fiche de poste introuvable : " + err.Error())
		return
	}

	body := widget.NewLabel(renderJobPosting(posting))
	body.Wrapping = fyne.TextWrapWord
	body.Selectable = true

	scroll := container.NewVScroll(body)
	scroll.SetMinSize(fyne.NewSize(520, 420))
	dialog.ShowCustom(posting.Title, "Fermer", scroll, bv.app.window)
}

func renderJobPosting(p *db.JobPosting) string {
	var sb strings.Builder
	section := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		sb.WriteString(label + "\n")
		for _, item := range items {
			sb.WriteString("• " + item + "\n")
		}
		sb.WriteString("\n")
	}

	if p.Description != "" {
		sb.WriteString(p.Description + "\n\n")
	}
	section(brief.CategoryLabel(brief.CategoryMissions), p.Missions)
	section("Profil recherché", p.Requirements)
	if p.Location != "" {
		sb.WriteString(brief.CategoryLabel(brief.CategoryLocation) + " : " + p.Location + "\n\n")
	}
	sb.WriteString("Créée le " + p.CreatedAt.Format("02/01/2006 15:04"))
	return sb.String()
}
