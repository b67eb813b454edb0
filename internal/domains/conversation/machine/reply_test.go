package machine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reservo/internal/domains/conversation/machine"
	"reservo/internal/domains/conversation/model"
	tableDto "reservo/internal/domains/table/model/dto"
)

func TestReply(t *testing.T) {
	s := confirming(t)
	s.BookingCode = "ABCD1234"

	tests := []struct {
		name      string
		directive machine.Directive
		contains  []string
	}{
		{
			name:      "ask date",
			directive: machine.Directive{Action: machine.ActionAsk, Ask: []string{model.SlotBookingDate}},
			contains:  []string{"ngày nào"},
		},
		{
			name:      "ask name and phone together",
			directive: machine.Directive{Action: machine.ActionAsk, Ask: []string{model.SlotGuestName, model.SlotGuestPhone}},
			contains:  []string{"tên", "số điện thoại"},
		},
		{
			name:      "summary",
			directive: machine.Directive{Action: machine.ActionSummarize},
			contains:  []string{"18/10/2026", "19:00", "Số người: 4", "bàn số 5", "An", "0901234567", "Ghi chú: không có", "xác nhận"},
		},
		{
			name: "choose",
			directive: machine.Directive{Action: machine.ActionChoose, Candidates: []tableDto.TableSummary{
				table(5, 4), table(7, 6),
			}},
			contains: []string{"2 bàn", "bàn số 5", "bàn số 7", "6 chỗ"},
		},
		{
			name:      "no tables",
			directive: machine.Directive{Action: machine.ActionNoTables, Criteria: tableDto.SearchTablesRequest{PartySize: 4, BookingDate: "2026-10-18", BookingTime: "19:00"}},
			contains:  []string{"4 người", "19:00 ngày 18/10/2026"},
		},
		{
			name:      "notice first",
			directive: machine.Directive{Action: machine.ActionSearch, Notice: "Bàn đã có người đặt."},
			contains:  []string{"Bàn đã có người đặt.\n"},
		},
		{
			name:      "done",
			directive: machine.Directive{Action: machine.ActionDone},
			contains:  []string{"ABCD1234"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := machine.Reply(s, tt.directive)

			for _, want := range tt.contains {
				assert.Contains(t, reply, want)
			}
		})
	}
}

func TestDirective_Verbatim(t *testing.T) {
	assert.True(t, machine.Directive{Action: machine.ActionSummarize}.Verbatim())
	assert.True(t, machine.Directive{Action: machine.ActionBooked}.Verbatim())
	assert.False(t, machine.Directive{Action: machine.ActionAsk}.Verbatim())
}
