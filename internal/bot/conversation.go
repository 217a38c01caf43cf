package bot

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-planner/internal/model"
	"todo-planner/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stagePriority
	stageDueDate
	stageRecurrence
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

// dueLayouts are accepted at the due date step. Values are UTC.
var dueLayouts = []string{"2006-01-02 15:04", "2006-01-02"}

func parseDue(text string) (time.Time, error) {
	for _, layout := range dueLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(text)); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", text)
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.clearConfirmation(msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if n := utf8.RuneCountInString(text); n == 0 || n > service.MaxTitleLength {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title must be 1-200 characters. Try again.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Add a short description (or press Skip).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			if utf8.RuneCountInString(text) > service.MaxDescriptionLength {
				return b.sendWithReplyMarkup(msg.Chat.ID, "The description must be at most 1000 characters.", skipKeyboard())
			}
			state.input.Description = &text
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔥 Pick a priority (or Skip).", priorityKeyboard())
	case stagePriority:
		if !isSkipInput(text) {
			p := model.Priority(strings.ToLower(text))
			if !p.Valid() {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Choose high, medium or low.", priorityKeyboard())
			}
			state.input.Priority = &p
		}
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Due date as <code>2025-11-30</code> or <code>2025-11-30 18:00</code> (or Skip).", skipKeyboard())
	case stageDueDate:
		if !isSkipInput(text) {
			due, err := parseDue(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I can't read that date. Use <code>2025-11-30</code> or Skip.", skipKeyboard())
			}
			state.input.DueDate = &due
		}
		state.stage = stageRecurrence
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Should it repeat?", recurrenceKeyboard())
	case stageRecurrence:
		lower := strings.ToLower(text)
		switch model.Recurrence(lower) {
		case model.RecurDaily, model.RecurWeekly, model.RecurMonthly:
			r := model.Recurrence(lower)
			state.input.RecurringPattern = &r
		default:
			if !isSkipInput(text) && lower != strings.ToLower(btnNoRepeat) {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Choose daily, weekly, monthly or No.", recurrenceKeyboard())
			}
		}
		input := state.input
		b.clearConversation(msg.From.ID)
		return b.finishTaskCreation(ctx, msg.From, input, msg.Chat.ID)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "The dialog was reset. Try again with /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	owner, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.tasks.CreateTask(ctx, owner, input)
	if err != nil {
		return b.sendText(chatID, "Could not save the task: "+userMessage(err))
	}
	b.logger.InfoContext(ctx, "task created", "task_id", task.ID, "owner", owner)

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(task.Title)))
	if task.Description != nil && *task.Description != "" {
		summary.WriteString(fmt.Sprintf("• <b>Description:</b> %s\n", escape(*task.Description)))
	}
	if task.Priority != nil {
		summary.WriteString(fmt.Sprintf("• <b>Priority:</b> %s\n", *task.Priority))
	}
	if task.DueDate != nil {
		summary.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", task.DueDate.Format("2006-01-02 15:04")))
	}
	if task.RecurringPattern != nil {
		summary.WriteString(fmt.Sprintf("• <b>Repeats:</b> %s", *task.RecurringPattern))
		if task.NextOccurrence != nil {
			summary.WriteString(fmt.Sprintf(", next %s", task.NextOccurrence.Format("2006-01-02")))
		}
		summary.WriteByte('\n')
	}

	if err := b.sendTextWithRemove(chatID, strings.TrimSpace(summary.String())); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, owner, defaultListQuery())
}
