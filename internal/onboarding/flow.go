package onboarding

import "github.com/m3rciful/signupbot/core/telegram/state"

// Steps stored in state.Session.State while a signup is in progress.
const (
	StepAwaitEmail      state.State = "await_email"
	StepAwaitSecret     state.State = "await_secret"
	StepAwaitAge        state.State = "await_age"
	StepAwaitExperience state.State = "await_experience"
	StepAwaitCapital    state.State = "await_capital"
	StepAwaitProof      state.State = "await_proof"
)

// Keys of state.Session.Data.
const (
	FieldEmail            = "email"
	FieldSecret           = "secret"
	FieldAge              = "age"
	FieldExperience       = "experience"
	FieldCapital          = "capital"
	FieldPaymentProof     = "payment_proof"
	FieldPaymentProofKind = "payment_proof_kind"
)

var stepFields = map[state.State]string{
	StepAwaitEmail:      FieldEmail,
	StepAwaitSecret:     FieldSecret,
	StepAwaitAge:        FieldAge,
	StepAwaitExperience: FieldExperience,
	StepAwaitCapital:    FieldCapital,
	StepAwaitProof:      FieldPaymentProof,
}

type action int

const (
	// actCollect validates a text answer, stores it and prompts for the next step.
	actCollect action = iota
	// actComplete stores the payment proof and upserts the record.
	actComplete
	// actRetry refuses the input and keeps the step.
	actRetry
	actCancel
)

type transition struct {
	action action
	field  string
	next   state.State
}

// flow is the transition table: step × event kind → action and next step.
// Start events are accepted from every step and are handled before lookup.
type flow struct {
	order []state.State
	table map[state.State]map[EventKind]transition
}

func buildFlow(p Policy) flow {
	order := []state.State{StepAwaitEmail, StepAwaitSecret}
	if p.ExtendedProfile {
		order = append(order, StepAwaitAge, StepAwaitExperience, StepAwaitCapital)
	}
	order = append(order, StepAwaitProof)

	table := make(map[state.State]map[EventKind]transition, len(order))
	for i, st := range order {
		row := map[EventKind]transition{
			EventCancel: {action: actCancel, next: StateCancelled},
		}
		if st == StepAwaitProof {
			row[EventImage] = transition{action: actComplete, field: FieldPaymentProof, next: StateDone}
			row[EventText] = transition{action: actRetry, field: FieldPaymentProof, next: st}
		} else {
			row[EventText] = transition{action: actCollect, field: stepFields[st], next: order[i+1]}
		}
		table[st] = row
	}
	return flow{order: order, table: table}
}

func (f flow) first() state.State {
	return f.order[0]
}

func (f flow) has(st state.State) bool {
	_, ok := f.table[st]
	return ok
}

func (f flow) lookup(from state.State, kind EventKind) (transition, bool) {
	tr, ok := f.table[from][kind]
	return tr, ok
}

