package amqp

import (
	"encoding/json"
	"fmt"

	"budgetboard/internal/ledger"
)

// EncodeLedgerEvent converts the event to a message body.
func EncodeLedgerEvent(ev ledger.Event) ([]byte, error) {
	return json.Marshal(ev)
}

// DecodeLedgerEvent parses a message body. Bodies with an unknown event type
// or without the payload their type requires are rejected.
func DecodeLedgerEvent(data []byte) (ledger.Event, error) {
	var ev ledger.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return ledger.Event{}, err
	}
	switch ev.Type {
	case ledger.EventIncomeSaved:
		if ev.Income == nil {
			return ledger.Event{}, fmt.Errorf("%s event without income", ev.Type)
		}
	case ledger.EventExpenseCreated:
		if ev.Expense == nil {
			return ledger.Event{}, fmt.Errorf("%s event without expense", ev.Type)
		}
	case ledger.EventExpenseDeleted:
		if ev.ExpenseID == 0 {
			return ledger.Event{}, fmt.Errorf("%s event without expense id", ev.Type)
		}
	default:
		return ledger.Event{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return ev, nil
}
