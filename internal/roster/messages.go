package roster

import (
	"fmt"
	"strings"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

const defaultMorningTime = "08:00"

func roleLabel(role domain.MemberRole) string {
	if role == domain.RoleMain {
		return "основной состав"
	}
	return "резерв"
}

func morningTime(shift *domain.Shift) string {
	if shift.MorningReminderTime == "" {
		return defaultMorningTime
	}
	return shift.MorningReminderTime
}

func shiftLines(shift *domain.Shift) string {
	return fmt.Sprintf("📅 %s\n📍 %s\n💰 %s", shift.Date, shift.Address, shift.Payment)
}

func confirmActions(shiftID int64) []domain.NotificationAction {
	return []domain.NotificationAction{
		{Kind: domain.ActionConfirm, ShiftID: shiftID, Label: "✅ Подтверждаю"},
		{Kind: domain.ActionDecline, ShiftID: shiftID, Label: "❌ Не смогу"},
	}
}

func morningActions(shiftID int64) []domain.NotificationAction {
	return []domain.NotificationAction{
		{Kind: domain.ActionMorningConfirm, ShiftID: shiftID, Label: "✅ Готов, выхожу!"},
		{Kind: domain.ActionDecline, ShiftID: shiftID, Label: "❌ Не смогу выйти"},
	}
}

func suspendedMessage(threshold int) domain.Notification {
	return domain.Notification{
		Type:    domain.NotificationSuspended,
		Subject: "Аккаунт временно заблокирован",
		Body: fmt.Sprintf("🚫 Ваш аккаунт временно заблокирован.\n\n"+
			"Вы %d раза подряд отказались или не ответили на смену.\n"+
			"Отправьте заявку на разблокировку, мы её рассмотрим.", threshold),
	}
}

func announcementMessage(shift *domain.Shift) domain.Notification {
	var b strings.Builder
	fmt.Fprintf(&b, "📢 Новая смена в городе %s!\n\n%s\n", shift.City, shiftLines(shift))
	if shift.Conditions != "" {
		fmt.Fprintf(&b, "📋 %s\n", shift.Conditions)
	}
	fmt.Fprintf(&b, "\nОсновной состав: %d мест, резерв: %d мест.", shift.MainSlots, shift.ReserveSlots)
	return domain.Notification{
		Type:    domain.NotificationAnnouncement,
		Subject: "Новая смена: " + shift.Date,
		Body:    b.String(),
		Actions: []domain.NotificationAction{
			{Kind: domain.ActionRegister, ShiftID: shift.ID, Role: domain.RoleMain, Label: "Записаться в основной состав"},
			{Kind: domain.ActionRegister, ShiftID: shift.ID, Role: domain.RoleReserve, Label: "Записаться в резерв"},
		},
	}
}

func registeredMessage(shift *domain.Shift, m *domain.Membership) domain.Notification {
	return domain.Notification{
		Type:    domain.NotificationRegistered,
		Subject: "Ты записан на смену",
		Body: fmt.Sprintf("✅ Ты записан!\n\n%s\n👤 Тип: %s, позиция №%d\n\n"+
			"Вечером придёт напоминание с просьбой подтвердить участие.",
			shiftLines(shift), roleLabel(m.Role), m.Position),
	}
}

func eveningPromptMessage(shift *domain.Shift, timeout int) domain.Notification {
	return domain.Notification{
		Type:    domain.NotificationEveningPrompt,
		Subject: "Напоминание о смене",
		Body: fmt.Sprintf("⏰ Напоминание о смене!\n\n%s\n\nПодтверди участие.\n"+
			"⚠️ Если не ответишь в течение %d минут, будешь снят автоматически!",
			shiftLines(shift), timeout),
		Actions: confirmActions(shift.ID),
	}
}

func eveningInfoMessage(shift *domain.Shift) domain.Notification {
	return domain.Notification{
		Type:    domain.NotificationEveningInfo,
		Subject: "Информация о смене",
		Body: fmt.Sprintf("🔔 Информация о смене\n\n%s\n\n"+
			"Ты в очереди резерва. Основной состав сейчас подтверждает участие.\n"+
			"Если кто-то откажется, тебе придёт сообщение о переводе в основу.\n"+
			"Утром в %s придёт финальная информация.",
			shiftLines(shift), morningTime(shift)),
	}
}

func morningPromptMessage(shift *domain.Shift, timeout int) domain.Notification {
	return domain.Notification{
		Type:    domain.NotificationMorningPrompt,
		Subject: "Сегодня твоя смена",
		Body: fmt.Sprintf("🌅 Доброе утро! Сегодня твоя смена\n\n%s\n\nПодтверди, что выходишь!\n"+
			"⚠️ Если не ответишь в течение %d минут, будешь снят.",
			shiftLines(shift), timeout),
		Actions: morningActions(shift.ID),
	}
}

func morningInfoMessage(shift *domain.Shift) domain.Notification {
	return domain.Notification{
		Type:    domain.NotificationMorningInfo,
		Subject: "Сегодня смена",
		Body: fmt.Sprintf("🌅 Доброе утро!\n\nСегодня смена в городе %s.\n📅 %s | 📍 %s\n\n"+
			"Основной состав заполнен, ты в резерве.\n"+
			"Если кто-то не выйдет, тебе придёт сообщение.",
			shift.City, shift.Date, shift.Address),
	}
}

func manualReminderMessage(shift *domain.Shift) domain.Notification {
	return domain.Notification{
		Type:    domain.NotificationEveningPrompt,
		Subject: "Напоминание о смене",
		Body:    fmt.Sprintf("⏰ Напоминание о смене\n\n%s\n\nПожалуйста, подтверди своё участие.", shiftLines(shift)),
		Actions: confirmActions(shift.ID),
	}
}

func confirmedMessage(shift *domain.Shift, role domain.MemberRole) domain.Notification {
	body := fmt.Sprintf("✅ Участие подтверждено!\n\n📅 %s\n📍 %s\n\n"+
		"Утром в %s придёт финальное подтверждение готовности.",
		shift.Date, shift.Address, morningTime(shift))
	if role == domain.RoleReserve {
		body = fmt.Sprintf("✅ Ты в резерве!\n\n📅 %s\n📍 %s\n\n"+
			"Если освободится место в основном составе, тебе придёт отдельное сообщение.",
			shift.Date, shift.Address)
	}
	return domain.Notification{Type: domain.NotificationConfirmed, Subject: "Участие подтверждено", Body: body}
}

func morningConfirmedMessage(shift *domain.Shift) domain.Notification {
	return domain.Notification{
		Type:    domain.NotificationConfirmed,
		Subject: "Ждём тебя",
		Body:    fmt.Sprintf("💪 Отлично, ждём тебя!\n\n%s\n\nУдачного рабочего дня!", shiftLines(shift)),
	}
}

func declinedMessage(threshold int) domain.Notification {
	return domain.Notification{
		Type:    domain.NotificationDeclined,
		Subject: "Ты отказался от смены",
		Body: fmt.Sprintf("❌ Ты отказался от смены.\n\n⚠️ Частые отказы снижают рейтинг.\n"+
			"После %d отказов подряд аккаунт станет неактивным.", threshold),
	}
}

func timedOutMessage(shift *domain.Shift, phase domain.Phase, timeout int, threshold int) domain.Notification {
	body := fmt.Sprintf("⚠️ Ты снят со смены за игнор напоминания\n\n📅 %s | %s\n\n"+
		"Ты не ответил в течение %d минут.\n"+
		"⚠️ Это влияет на твой рейтинг. После %d игноров подряд аккаунт блокируется.",
		shift.Date, shift.Address, timeout, threshold)
	if phase == domain.PhaseMorning {
		body = fmt.Sprintf("⚠️ Ты снят со смены\n\nНе подтвердил готовность утром в течение %d минут.\n"+
			"📅 %s | %s\n\n⚠️ Это влияет на твой рейтинг.",
			timeout, shift.Date, shift.Address)
	}
	return domain.Notification{Type: domain.NotificationTimedOut, Subject: "Ты снят со смены", Body: body}
}

func promotedMessage(shift *domain.Shift, morning bool, morningTimeout int) domain.Notification {
	if morning {
		return domain.Notification{
			Type:    domain.NotificationPromoted,
			Subject: "Для тебя нашлось место",
			Body: fmt.Sprintf("🎉 Для тебя нашлось место в основном составе!\n\n%s\n\n"+
				"⚡ Подтверди готовность в течение %d минут!\n"+
				"⚠️ Если не ответишь, место перейдёт следующему.",
				shiftLines(shift), morningTimeout),
			Actions: morningActions(shift.ID),
		}
	}
	return domain.Notification{
		Type:    domain.NotificationPromoted,
		Subject: "Тебя переводят в основной состав",
		Body: fmt.Sprintf("🎉 Поздравляем! Тебя переводят в основной состав!\n\n%s\n\n"+
			"Утром в %s придёт финальное подтверждение готовности.\n"+
			"⚠️ Если не ответишь, будешь снят автоматически.",
			shiftLines(shift), morningTime(shift)),
		Actions: confirmActions(shift.ID),
	}
}

func reportRequestMessage(shift *domain.Shift) domain.Notification {
	return domain.Notification{
		Type:    domain.NotificationReportRequest,
		Subject: "Как прошла смена?",
		Body:    fmt.Sprintf("📋 Смена завершена\n\n📅 %s | %s\n\nОтметь, вышел ли ты на смену.", shift.Date, shift.Address),
		Actions: []domain.NotificationAction{
			{Kind: domain.ActionReportWorked, ShiftID: shift.ID, Label: "✅ Отработал"},
			{Kind: domain.ActionReportNoShow, ShiftID: shift.ID, Label: "❌ Не вышел"},
		},
	}
}

func reportReceivedMessage(worked bool) domain.Notification {
	body := "📝 Причина записана.\n\nНадеемся, что в следующий раз всё получится!"
	if worked {
		body = "✅ Отлично! Отмечено, что ты отработал смену.\n\nСпасибо за работу!"
	}
	return domain.Notification{Type: domain.NotificationReportReceived, Subject: "Отчёт принят", Body: body}
}

func unblockResolvedMessage(approved bool) domain.Notification {
	body := "❌ Заявка на разблокировку отклонена."
	if approved {
		body = "✅ Ваш аккаунт разблокирован! Можно снова записываться на смены."
	}
	return domain.Notification{Type: domain.NotificationUnblockResolved, Subject: "Заявка на разблокировку", Body: body}
}

func adminMessage(subject string, format string, args ...any) domain.Notification {
	return domain.Notification{
		Type:    domain.NotificationAdmin,
		Subject: subject,
		Body:    fmt.Sprintf(format, args...),
	}
}

func summaryBody(s *domain.ShiftSummary) string {
	tag := func(e domain.SummaryEntry) string {
		if e.Role == domain.RoleMain {
			return "осн."
		}
		return "рез."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Итог смены\n📍 %s | %s\n", s.Shift.City, s.Shift.Date)
	if len(s.Worked) > 0 {
		fmt.Fprintf(&b, "\n✅ Отработали (%d):\n", len(s.Worked))
		for _, e := range s.Worked {
			fmt.Fprintf(&b, "  %s %s | %s\n", tag(e), e.FullName, e.Phone)
		}
	}
	if len(s.NotWorked) > 0 {
		fmt.Fprintf(&b, "\n❌ Не вышли (%d):\n", len(s.NotWorked))
		for _, e := range s.NotWorked {
			reason := e.DeclineReason
			if reason == "" {
				reason = "причина не указана"
			}
			fmt.Fprintf(&b, "  %s %s | %s\n    ↳ %s\n", tag(e), e.FullName, e.Phone, reason)
		}
	}
	if len(s.NoResponse) > 0 {
		fmt.Fprintf(&b, "\n⏳ Не ответили (%d):\n", len(s.NoResponse))
		for _, e := range s.NoResponse {
			fmt.Fprintf(&b, "  %s %s | %s\n", tag(e), e.FullName, e.Phone)
		}
	}
	return b.String()
}
