package scheduling

import "github.com/eclinicgh/telehealth-platform/internal/identity"

// The appointment state machine. Appointments are created pending; the
// referenced provider approves (upcoming) or declines (cancelled); either
// party may cancel an upcoming appointment. upcoming -> past is never
// actor-triggered: it is derived at read time (see EffectiveStatus).
//
//	pending  -> upcoming   provider approves
//	pending  -> cancelled  provider declines
//	upcoming -> cancelled  patient or provider cancels
type edge struct {
	from Status
	to   Status
}

// allowed maps each actor-triggerable edge to its authorization rule. The rule
// assumes the actor is already known to be a party to the appointment.
var allowed = map[edge]func(a *Appointment, actor identity.Actor) bool{
	{StatusPending, StatusUpcoming}: func(a *Appointment, actor identity.Actor) bool {
		return actor.ID == a.ProviderUID
	},
	{StatusPending, StatusCancelled}: func(a *Appointment, actor identity.Actor) bool {
		return actor.ID == a.ProviderUID
	},
	{StatusUpcoming, StatusCancelled}: func(a *Appointment, actor identity.Actor) bool {
		return actor.ID == a.PatientUID || actor.ID == a.ProviderUID
	},
}

// AuthorizeTransition checks that moving appt to the target status is a legal
// edge and that the actor may trigger it. Unknown edges fail with
// ErrInvalidTransition; known edges triggered by the wrong party fail with
// ErrUnauthorized. Terminal states have no outgoing edges, so a past or
// cancelled appointment rejects every transition.
func AuthorizeTransition(a *Appointment, to Status, actor identity.Actor) error {
	rule, ok := allowed[edge{a.Status, to}]
	if !ok {
		return ErrInvalidTransition
	}
	if actor.ID != a.PatientUID && actor.ID != a.ProviderUID {
		return ErrUnauthorized
	}
	if !rule(a, actor) {
		return ErrUnauthorized
	}
	return nil
}
