package mail

import "fmt"

// Notifier compone los mails de negocio sobre un Sender.
type Notifier struct {
	sender  Sender
	appName string
}

func NewNotifier(sender Sender, appName string) *Notifier {
	return &Notifier{sender: sender, appName: appName}
}

// Welcome se dispara tras el registro. El error vuelve para que el caller
// decida; el flujo de registro lo loguea y sigue.
func (n *Notifier) Welcome(to, login string) error {
	subject := fmt.Sprintf("Bienvenido a %s", n.appName)
	text := fmt.Sprintf("Hola %s,\n\nTu cuenta en %s quedó creada. Ya podés iniciar sesión.\n", login, n.appName)
	html := fmt.Sprintf("<p>Hola <b>%s</b>,</p><p>Tu cuenta en %s quedó creada. Ya podés iniciar sesión.</p>", login, n.appName)
	return n.sender.Send(to, subject, html, text)
}

// PasswordResetNotice avisa que un administrador forzó el cambio de password.
func (n *Notifier) PasswordResetNotice(to, login string) error {
	subject := fmt.Sprintf("%s: cambio de password requerido", n.appName)
	text := fmt.Sprintf("Hola %s,\n\nTu próxima sesión en %s va a requerir cambiar la password antes de operar.\n", login, n.appName)
	html := fmt.Sprintf("<p>Hola <b>%s</b>,</p><p>Tu próxima sesión en %s va a requerir cambiar la password antes de operar.</p>", login, n.appName)
	return n.sender.Send(to, subject, html, text)
}
