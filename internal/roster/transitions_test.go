package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

func TestNext(t *testing.T) {
	cases := []struct {
		event Event
		from  domain.MemberStatus
		to    domain.MemberStatus
		valid bool
	}{
		{EventConfirm, domain.StatusRegistered, domain.StatusConfirmed, true},
		{EventConfirm, domain.StatusConfirmed, "", false},
		{EventConfirm, domain.StatusRefused, "", false},
		{EventConfirm, domain.StatusRemoved, "", false},
		{EventConfirm, domain.StatusWorked, "", false},
		{EventMorningConfirm, domain.StatusRegistered, domain.StatusConfirmed, true},
		{EventMorningConfirm, domain.StatusConfirmed, domain.StatusConfirmed, true},
		{EventMorningConfirm, domain.StatusRemoved, "", false},
		{EventDecline, domain.StatusRegistered, domain.StatusRefused, true},
		{EventDecline, domain.StatusConfirmed, domain.StatusRefused, true},
		{EventDecline, domain.StatusRefused, "", false},
		{EventDecline, domain.StatusWorked, "", false},
		{EventTimeout, domain.StatusRegistered, domain.StatusRemoved, true},
		{EventTimeout, domain.StatusConfirmed, "", false},
		{EventTimeout, domain.StatusRefused, "", false},
		{EventPromote, domain.StatusConfirmed, domain.StatusRegistered, true},
		{EventPromote, domain.StatusRemoved, "", false},
		{EventReportWorked, domain.StatusConfirmed, domain.StatusWorked, true},
		{EventReportWorked, domain.StatusRefused, "", false},
		{EventReportNoShow, domain.StatusRegistered, domain.StatusRemoved, true},
		{EventReportNoShow, domain.StatusWorked, "", false},
		{EventCorrectWorked, domain.StatusRemoved, domain.StatusWorked, true},
		{EventCorrectWorked, domain.StatusRefused, "", false},
		{EventCorrectWorked, domain.StatusRegistered, "", false},
		{EventCorrectNoShow, domain.StatusWorked, domain.StatusRemoved, true},
		{EventCorrectNoShow, domain.StatusRefused, "", false},
		{EventCorrectNoShow, domain.StatusConfirmed, "", false},
		{Event("unknown"), domain.StatusRegistered, "", false},
	}

	for _, tt := range cases {
		got, err := Next(tt.event, tt.from)
		if !tt.valid {
			require.ErrorIs(t, err, domain.ErrInvalidTransition, "%s from %s", tt.event, tt.from)
			continue
		}
		require.NoError(t, err, "%s from %s", tt.event, tt.from)
		assert.Equal(t, tt.to, got, "%s from %s", tt.event, tt.from)
	}
}

// 终止状态只接受出勤结果的更正
func TestTerminalStatesAcceptOnlyCorrections(t *testing.T) {
	events := []Event{EventConfirm, EventMorningConfirm, EventDecline, EventTimeout, EventPromote, EventReportWorked, EventReportNoShow}
	for _, status := range []domain.MemberStatus{domain.StatusRefused, domain.StatusRemoved, domain.StatusWorked} {
		require.True(t, status.Terminal())
		for _, event := range events {
			_, err := Next(event, status)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition, "%s from %s", event, status)
		}
	}
	_, err := Next(EventCorrectWorked, domain.StatusRefused)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = Next(EventCorrectNoShow, domain.StatusRefused)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSourcesIsACopy(t *testing.T) {
	src := Sources(EventDecline)
	src[0] = domain.StatusWorked
	assert.Equal(t, []domain.MemberStatus{domain.StatusRegistered, domain.StatusConfirmed}, Sources(EventDecline))
}
