package ui

import (
	"context"
	"fmt"
	"path/filepath"

	"brief-copilot/brief"
	"brief-copilot/db"
	"brief-copilot/utils"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// App represents the main application
type App struct {
	fyneApp    fyne.App
	window     fyne.Window
	config     *utils.Config
	configPath string
	db         *db.DB
	logger     *utils.Logger
	streamer   brief.Streamer
	titler     brief.Titler
	userID     string

	ctx    context.Context
	cancel context.CancelFunc

	// UI components
	sidebar     *BriefSidebar
	briefView   *BriefView
	content     *fyne.Container
	statusLabel *widget.Label
}

// NewApp creates a new application instance. titler may be nil.
func NewApp(config *utils.Config, configPath string, database *db.DB, logger *utils.Logger, streamer brief.Streamer, titler brief.Titler) *App {
	fyneApp := app.NewWithID("brief-copilot")
	window := fyneApp.NewWindow("Brief Copilot")

	// Set window size from config
	window.Resize(fyne.NewSize(
		float32(config.UI.WindowWidth),
		float32(config.UI.WindowHeight),
	))

	userID := config.Backend.UserID
	if userID == "" {
		userID = "local"
	}

	ctx, cancel := context.WithCancel(context.Background())
	application := &App{
		fyneApp:    fyneApp,
		window:     window,
		config:     config,
		configPath: configPath,
		db:         database,
		logger:     logger,
		streamer:   streamer,
		titler:     titler,
		userID:     userID,
		ctx:        ctx,
		cancel:     cancel,
	}

	// Save window size when closing
	window.SetOnClosed(func() {
		size := window.Canvas().Size()
		application.config.UI.WindowWidth = int(size.Width)
		application.config.UI.WindowHeight = int(size.Height)
		if err := utils.SaveConfig(application.configPath, application.config); err != nil {
			application.logger.Error("Failed to save window size: %v", err)
		} else {
			application.logger.Info("Window size saved: %dx%d", application.config.UI.WindowWidth, application.config.UI.WindowHeight)
		}
	})

	application.applyThemeFromConfig()
	application.buildUI()

	return application
}

// newSession wires a brief session to the app collaborators
func (a *App) newSession() *brief.Session {
	return brief.NewSession(brief.SessionOptions{
		Streamer:  a.streamer,
		Extractor: brief.NewKeywordExtractor(),
		Bridge:    brief.NewBridge(a.db, a.userID),
		Notifier:  a,
		Logger:    a.logger,
		Titler:    a.titler,
		Postings:  a.db,
	})
}

// buildUI builds the main UI
func (a *App) buildUI() {
	a.sidebar = NewBriefSidebar(a)
	a.statusLabel = widget.NewLabel("")
	a.statusLabel.Truncation = fyne.TextTruncateEllipsis

	newButton := widget.NewButton("➕ Nouveau brief", func() {
		a.newBrief()
	})
	newButton.Importance = widget.HighImportance

	importButton := widget.NewButton("📥 Importer", func() {
		a.showImportDialog()
	})
	importButton.Importance = widget.LowImportance

	exportAllButton := widget.NewButton("📤 Tout exporter", func() {
		a.exportAllBriefs()
	})
	exportAllButton.Importance = widget.LowImportance

	sidebarContainer := container.NewBorder(
		nil,
		container.NewVBox(
			container.NewGridWithColumns(2, importButton, exportAllButton),
			newButton,
		),
		nil,
		nil,
		a.sidebar,
	)

	a.content = container.NewStack()
	a.showBrief(a.newSession())

	// Sidebar gets a quarter of the window
	split := container.NewHSplit(sidebarContainer, a.content)
	split.SetOffset(0.25)

	a.window.SetContent(container.NewBorder(nil, a.statusLabel, nil, nil, split))
	a.setupKeyboardShortcuts()
}

// setupKeyboardShortcuts sets up global keyboard shortcuts
func (a *App) setupKeyboardShortcuts() {
	// Ctrl+N: New brief
	a.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyN,
		Modifier: desktop.ControlModifier,
	}, func(shortcut fyne.Shortcut) {
		a.logger.Debug("Keyboard shortcut: Ctrl+N - New brief")
		a.newBrief()
	})

	// Ctrl+S: Save
	a.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyS,
		Modifier: desktop.ControlModifier,
	}, func(shortcut fyne.Shortcut) {
		a.logger.Debug("Keyboard shortcut: Ctrl+S - Save brief")
		if a.briefView != nil {
			a.briefView.save()
		}
	})

	// Ctrl+F: Filter saved briefs
	a.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyF,
		Modifier: desktop.ControlModifier,
	}, func(shortcut fyne.Shortcut) {
		a.window.Canvas().Focus(a.sidebar.searchEntry)
	})
}

func (a *App) showBrief(session *brief.Session) {
	a.briefView = NewBriefView(a, session)
	a.content.Objects = []fyne.CanvasObject{a.briefView.Build()}
	a.content.Refresh()
	a.sidebar.updateHighlight(session.ID())
}

// newBrief replaces the open brief with an empty one
func (a *App) newBrief() {
	if a.briefView != nil && a.briefView.session.Sending() {
		a.setStatus("⏳ Une réponse est en cours, patientez avant d'ouvrir un autre brief")
		return
	}
	a.logger.Info("Starting a new brief")
	a.showBrief(a.newSession())
}

// openBrief loads a saved brief into a new session
func (a *App) openBrief(id string) {
	if a.briefView != nil && a.briefView.session.Sending() {
		a.setStatus("⏳ Une réponse est en cours, patientez avant d'ouvrir un autre brief")
		return
	}

	session := a.newSession()
	utils.SafeGo(a.logger, "openBrief", func() {
		if err := session.Load(a.ctx, id); err != nil {
			// Load already logged and notified
			return
		}
		fyne.Do(func() {
			a.showBrief(session)
		})
	})
}

// Notify shows a brief notification in the status line, and as a system
// notification for failures and saves
func (a *App) Notify(n brief.Notification) {
	text := n.Title
	if n.Message != "" {
		text += " : " + n.Message
	}
	if n.Level == brief.LevelError {
		a.logger.Warn("Notification: %s", text)
		text = "❌ " + text
	} else {
		text = "✅ " + text
	}
	a.setStatus(text)

	if n.Level == brief.LevelError || n.Title == brief.TitleSaved {
		a.fyneApp.SendNotification(fyne.NewNotification(n.Title, n.Message))
	}
}

func (a *App) setStatus(text string) {
	fyne.Do(func() {
		a.statusLabel.SetText(text)
	})
}

// deleteBriefByID asks for confirmation, then deletes a brief
func (a *App) deleteBriefByID(id string) {
	b, err := a.db.GetBrief(id)
	if err != nil {
		a.showError("Brief introuvable")
		return
	}

	dialog.ShowConfirm("Confirmer la suppression",
		fmt.Sprintf("Supprimer le brief \"%s\" ?\nCette action est irréversible.", displayTitle(b)),
		func(ok bool) {
			if !ok {
				return
			}
			if err := a.db.DeleteBrief(a.userID, id); err != nil {
				a.logger.Error("Failed to delete brief: %v", err)
				a.showError("Suppression impossible : " + err.Error())
				return
			}
			a.logger.Info("Brief deleted: %s", id)

			// The open brief becomes a fresh one
			if a.briefView != nil && a.briefView.session.ID() == id {
				a.showBrief(a.newSession())
			}
			a.RefreshSidebar()
		}, a.window)
}

// exportBrief exports a brief to the default export directory
func (a *App) exportBrief(id string, format utils.ExportFormat) {
	b, err := a.db.GetBrief(id)
	if err != nil {
		a.showError("Brief introuvable : " + err.Error())
		return
	}

	exportDir, err := utils.GetDefaultExportPath()
	if err != nil {
		a.showError("Dossier d'export indisponible : " + err.Error())
		return
	}

	path := filepath.Join(exportDir, utils.GenerateExportFilename(b.Title, format))

	var exportErr error
	if format == utils.FormatJSON {
		exportErr = utils.ExportBriefToJSON(a.db, id, path)
	} else {
		exportErr = utils.ExportBriefToMarkdown(a.db, id, path)
	}
	if exportErr != nil {
		a.showError("Export impossible : " + exportErr.Error())
		return
	}

	a.logger.Info("Exported brief %s to %s", id, path)
	a.showInfo("Export réussi !\nFichier : " + path)
}

// exportAllBriefs exports every brief to one JSON file
func (a *App) exportAllBriefs() {
	exportDir, err := utils.GetDefaultExportPath()
	if err != nil {
		a.showError("Dossier d'export indisponible : " + err.Error())
		return
	}

	path := filepath.Join(exportDir, utils.GenerateExportFilename("tous_les_briefs", utils.FormatJSON))
	count, err := utils.ExportAllBriefs(a.db, a.userID, path)
	if err != nil {
		a.showError("Export impossible : " + err.Error())
		return
	}

	a.logger.Info("Exported %d briefs to %s", count, path)
	a.showInfo(fmt.Sprintf("Export réussi !\n%d briefs dans : %s", count, path))
}

// showImportDialog imports a brief exported as JSON
func (a *App) showImportDialog() {
	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			a.showError("Ouverture impossible : " + err.Error())
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		b, err := utils.ImportBrief(a.db, a.userID, path)
		if err != nil {
			a.showError("Import impossible : " + err.Error())
			return
		}

		a.logger.Info("Imported brief %s from %s", b.ID, path)
		a.RefreshSidebar()
		a.openBrief(b.ID)
	}, a.window)
	fileDialog.Show()
}

// Run starts the application
func (a *App) Run() {
	a.window.ShowAndRun()
}

// RefreshSidebar reloads the saved brief list
func (a *App) RefreshSidebar() {
	a.sidebar.Refresh()
}

// showError shows an error dialog
func (a *App) showError(message string) {
	var popup *widget.PopUp
	popup = widget.NewModalPopUp(
		container.NewVBox(
			widget.NewLabel("❌ Erreur"),
			widget.NewLabel(message),
			widget.NewButton("OK", func() {
				popup.Hide()
			}),
		),
		a.window.Canvas(),
	)
	popup.Show()
}

// showInfo shows an info dialog
func (a *App) showInfo(message string) {
	var popup *widget.PopUp
	popup = widget.NewModalPopUp(
		container.NewVBox(
			widget.NewLabel("ℹ️ Information"),
			widget.NewLabel(message),
			widget.NewButton("OK", func() {
				popup.Hide()
			}),
		),
		a.window.Canvas(),
	)
	popup.Show()
}

// applyThemeFromConfig applies the theme from config
func (a *App) applyThemeFromConfig() {
	isDark := a.config.UI.Theme == "dark"
	fontSize := a.config.UI.FontSize
	if fontSize < 10 {
		fontSize = 14 // Default font size
	}

	a.fyneApp.Settings().SetTheme(newCustomTheme(fontSize, isDark))

	if isDark {
		a.logger.Info("Applied dark theme with font size %d", fontSize)
	} else {
		a.logger.Info("Applied light theme with font size %d", fontSize)
	}
}

// Cleanup performs cleanup before exit
func (a *App) Cleanup() {
	// Abandons any reply still streaming
	a.cancel()

	if a.db != nil {
		if err := a.db.Vacuum(); err != nil {
			a.logger.Warn("Failed to vacuum database: %v", err)
		}
		a.db.Close()
	}
	if a.logger != nil {
		a.logger.Close()
	}
}
