package brief

// Level of a user notification
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

// Notification is a short non-blocking message shown to the user
type Notification struct {
	Level   Level
	Title   string
	Message string
}

// Notifier shows notifications; Notify must not block
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(n Notification)

// Notify calls f(n)
func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}

// TitleSaved is the title of the notification sent after a successful save
const TitleSaved = "Section sauvegardée"

const (
	titleSent         = "Message envoyé"
	titleSaveFailed   = "Impossible de sauvegarder"
	titleStreamFailed = "Impossible de joindre l'assistant"
	titleLoadFailed   = "Impossible de charger le brief"
	titleGenerated    = "Fiche de poste générée"
	titleGenerateFail = "Impossible de générer la fiche de poste"
)
