package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-planner/internal/query"
	"todo-planner/internal/service"
)

const (
	cbTogglePrefix = "toggle:"
	cbDeletePrefix = "delete:"
)

type confirmationRequest struct {
	taskID int64
}

func defaultListQuery() query.Query {
	return parseListArgs("")
}

// parseListArgs reads "/tasks [status] [priorities]". Either argument may
// be omitted; pending tasks by due date is the default.
func parseListArgs(args string) query.Query {
	params := query.Params{
		Status: string(query.StatusPending),
		Sort:   string(query.SortDueDate),
		Order:  string(query.Asc),
	}
	for _, field := range strings.Fields(args) {
		switch strings.ToLower(field) {
		case string(query.StatusPending), string(query.StatusCompleted), string(query.StatusAll):
			params.Status = field
		default:
			params.Priority = field
		}
	}
	return query.Parse(params)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	owner, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendTaskList(ctx, msg.Chat.ID, owner, parseListArgs(msg.CommandArguments()))
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, owner string, q query.Query) error {
	tasks, err := b.tasks.ListTasks(ctx, owner, q)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "No matching tasks. Add one with /newtask.")
	}

	now := b.now()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 <b>Tasks</b> (%s, %d)\n", q.Status, len(tasks)))
	sb.WriteString("Tap a button to toggle a task or delete it.\n\n")

	buttons := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for _, task := range tasks {
		sb.WriteString(service.FormatTask(task, now))
		sb.WriteByte('\n')

		mark := "✅"
		if task.Completed {
			mark = "↩️"
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s #%d · %s", mark, task.ID, shortTitle(task.Title, 24)), fmt.Sprintf("%s%d", cbTogglePrefix, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(sb.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	return b.send(msg)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID

	switch {
	case strings.HasPrefix(cb.Data, cbTogglePrefix):
		b.ack(cb, "")
		id, err := service.ParseID(strings.TrimPrefix(cb.Data, cbTogglePrefix))
		if err != nil {
			return nil
		}
		return b.toggleAndRefresh(ctx, chatID, cb.From, id)
	case strings.HasPrefix(cb.Data, cbDeletePrefix):
		b.ack(cb, "")
		id, err := service.ParseID(strings.TrimPrefix(cb.Data, cbDeletePrefix))
		if err != nil {
			return nil
		}
		return b.askDeleteConfirmation(ctx, chatID, cb.From, id)
	default:
		b.ack(cb, "")
		return nil
	}
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	id, err := service.ParseID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the task id: /done 12")
	}
	owner, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	task, status, err := b.tasks.ToggleTask(ctx, owner, id)
	if err != nil {
		return b.sendText(msg.Chat.ID, userMessage(err))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("%s Task «%s» marked as %s.", statusIcon(status), escape(task.Title), status))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	id, err := service.ParseID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the task id: /delete 12")
	}
	return b.askDeleteConfirmation(ctx, msg.Chat.ID, msg.From, id)
}

func (b *Bot) toggleAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, id int64) error {
	owner, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, status, err := b.tasks.ToggleTask(ctx, owner, id)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	b.logger.InfoContext(ctx, "task toggled", "task_id", id, "owner", owner, "status", status)
	if err := b.sendText(chatID, fmt.Sprintf("%s Task «%s» marked as %s.", statusIcon(status), escape(task.Title), status)); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, owner, defaultListQuery())
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, id int64) error {
	owner, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.tasks.GetTask(ctx, owner, id)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}

	b.clearConversation(from.ID)
	b.setConfirmation(from.ID, confirmationRequest{taskID: task.ID})
	text := fmt.Sprintf("Delete task «%s» (#%d)?", escape(task.Title), task.ID)
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.deleteAndRefresh(ctx, msg.Chat.ID, msg.From, req.taskID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Deletion cancelled.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
}

func (b *Bot) deleteAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, id int64) error {
	owner, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	if err := b.tasks.DeleteTask(ctx, owner, id); err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	b.logger.InfoContext(ctx, "task deleted", "task_id", id, "owner", owner)
	if err := b.sendText(chatID, fmt.Sprintf("🗑 Task %d deleted.", id)); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, owner, defaultListQuery())
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(ctx, msg)
	case strings.ToLower(menuLabelTags):
		return true, b.handleTags(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func statusIcon(status string) string {
	if status == "completed" {
		return "✅"
	}
	return "↩️"
}
