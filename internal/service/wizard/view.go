package wizard

import "assistance-gateway/internal/domain/wizard"

// View projects a session for the client.
func View(sess *wizard.Session) *wizard.SessionView {
	v := &wizard.SessionView{
		Session:   sess,
		StepIndex: sess.StepIndex(),
		Missing:   sess.Missing(),
	}
	if sess.Service == nil {
		v.StepIndex = 1
		v.Steps = []wizard.Step{wizard.StepSelectService}
	} else {
		v.ConfirmIndex = sess.Branch.ConfirmIndex()
		v.Steps = sess.Branch.Steps()
	}
	switch sess.Step {
	case wizard.StepConfirm, wizard.StepSubmitted:
	default:
		v.CanAdvance = len(v.Missing) == 0
	}
	return v
}
