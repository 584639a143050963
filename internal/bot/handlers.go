package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/service"
)

var tokenPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// Handler routes Telegram updates to the services.
type Handler struct {
	invitations service.InvitationService
	enrollment  service.EnrollmentService
	profiles    service.ProfileService
	staff       service.StaffService
	sessions    *SessionStore
	logger      *slog.Logger
}

func NewHandler(invitations service.InvitationService, enrollment service.EnrollmentService, profiles service.ProfileService, staff service.StaffService, sessions *SessionStore, logger *slog.Logger) *Handler {
	return &Handler{
		invitations: invitations,
		enrollment:  enrollment,
		profiles:    profiles,
		staff:       staff,
		sessions:    sessions,
		logger:      logger,
	}
}

// HandleUpdate is the single entry point for every update.
func (h *Handler) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, b, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		h.handleMessage(ctx, b, update.Message)
	}
}

func (h *Handler) handleMessage(ctx context.Context, b *bot.Bot, msg *models.Message) {
	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID
	from := msg.From

	switch {
	case strings.HasPrefix(text, "/start"):
		h.sessions.Delete(chatID)
		arg := strings.TrimSpace(strings.TrimPrefix(text, "/start"))
		if tokenPattern.MatchString(arg) {
			h.redeemToken(ctx, b, chatID, from, arg)
			return
		}
		h.sendMainMenu(ctx, b, chatID, from.ID)
	case strings.HasPrefix(text, "/use"):
		arg := strings.TrimSpace(strings.TrimPrefix(text, "/use"))
		if !tokenPattern.MatchString(arg) {
			h.send(ctx, b, chatID, "Usage: /use <invitation token>")
			return
		}
		h.redeemToken(ctx, b, chatID, from, arg)
	case text == "/invite":
		h.handleInviteMenu(ctx, b, chatID, from.ID)
	case text == "/pending":
		h.handlePending(ctx, b, chatID, from.ID)
	case text == "/staff":
		h.handleStaff(ctx, b, chatID, from.ID)
	case text == "/cancel":
		h.sessions.Delete(chatID)
		h.send(ctx, b, chatID, "Cancelled.")
	case text == "/help":
		h.send(ctx, b, chatID, h.helpText(ctx, from.ID))
	default:
		if _, ok := h.sessions.Get(chatID); ok {
			h.advanceProfile(ctx, b, chatID, from, text)
			return
		}
		// A raw pasted token also works.
		if tokenPattern.MatchString(text) {
			h.redeemToken(ctx, b, chatID, from, text)
			return
		}
		h.send(ctx, b, chatID, "I did not understand that. Try /help.")
	}
}

func username(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}

func (h *Handler) redeemToken(ctx context.Context, b *bot.Bot, chatID int64, from *models.User, token string) {
	jr, err := h.enrollment.OpenJoinRequest(ctx, from.ID, username(from), token)
	switch {
	case errors.Is(err, service.ErrAlreadyMember):
		h.send(ctx, b, chatID, "You are already a member.")
	case errors.Is(err, service.ErrInvalidInvitation):
		h.send(ctx, b, chatID, "This invitation is invalid or was already used.")
	case errors.Is(err, service.ErrInvitationExpired):
		h.send(ctx, b, chatID, "This invitation has expired. Ask for a new link.")
	case err != nil:
		h.logger.Error("failed to open join request", "telegram_id", from.ID, "error", err)
		h.send(ctx, b, chatID, "Something went wrong. Please try again later.")
	case jr.Status == domain.JoinRequestStatusApproved:
		h.send(ctx, b, chatID, "Your request is approved. Complete your profile with the button in the approval message, or send /start.")
	default:
		h.send(ctx, b, chatID, "Your join request was sent. You will be notified once it is reviewed.")
	}
}

// callerRole resolves the sender's role, or "" for guests.
func (h *Handler) callerRole(ctx context.Context, telegramID int64) domain.Role {
	user, err := h.staff.Identity(ctx, telegramID)
	if err != nil || !user.IsActive {
		return ""
	}
	return user.Role
}

// sendMainMenu greets the caller with the surface their role can use.
func (h *Handler) sendMainMenu(ctx context.Context, b *bot.Bot, chatID, telegramID int64) {
	switch h.callerRole(ctx, telegramID) {
	case domain.RoleAdmin, domain.RoleManager:
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "What would you like to do?",
			ReplyMarkup: models.InlineKeyboardMarkup{
				InlineKeyboard: [][]models.InlineKeyboardButton{{
					{Text: "Invite", CallbackData: "main:invite"},
					{Text: "Pending requests", CallbackData: "main:pending"},
					{Text: "My staff", CallbackData: "main:staff"},
				}},
			},
		})
		if err != nil {
			h.logger.Warn("failed to send main menu", "chat_id", chatID, "error", err)
		}
	case domain.RoleEmployee:
		h.send(ctx, b, chatID, "Welcome back. Submit your daily flight report through the mini app, or see /help.")
	default:
		h.send(ctx, b, chatID, "Welcome. Paste an invitation link or token to join, or use /help.")
	}
}

func (h *Handler) helpText(ctx context.Context, telegramID int64) string {
	switch h.callerRole(ctx, telegramID) {
	case domain.RoleAdmin:
		return "/invite to create employee or manager invitation links\n/pending to review join requests\n/staff to manage employees\n/cancel to abort the current dialog"
	case domain.RoleManager:
		return "/invite to create employee invitation links\n/pending to review join requests\n/staff to manage your employees\nLog in to the web dashboard with your login and password\n/cancel to abort the current dialog"
	case domain.RoleEmployee:
		return "Submit your daily flight report through the mini app.\n/cancel to abort the current dialog"
	default:
		return "/start <token> or /use <token> to join with an invitation\n/cancel to abort the current dialog"
	}
}

func (h *Handler) handleInviteMenu(ctx context.Context, b *bot.Bot, chatID, telegramID int64) {
	role := h.callerRole(ctx, telegramID)
	if role != domain.RoleAdmin && role != domain.RoleManager {
		h.send(ctx, b, chatID, "This command is for managers.")
		return
	}

	row := []models.InlineKeyboardButton{
		{Text: "Employee", CallbackData: "inv:EMPLOYEE"},
	}
	// Only admins may grant the manager role.
	if role == domain.RoleAdmin {
		row = append(row, models.InlineKeyboardButton{Text: "Manager", CallbackData: "inv:MANAGER"})
	}
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "Who do you want to invite?",
		ReplyMarkup: models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{row},
		},
	})
	if err != nil {
		h.logger.Warn("failed to send invite menu", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) handlePending(ctx context.Context, b *bot.Bot, chatID, telegramID int64) {
	pending, err := h.enrollment.PendingForManager(ctx, telegramID)
	if errors.Is(err, service.ErrUnauthorized) {
		h.send(ctx, b, chatID, "This command is for managers.")
		return
	}
	if err != nil {
		h.logger.Error("failed to list pending requests", "telegram_id", telegramID, "error", err)
		h.send(ctx, b, chatID, "Something went wrong. Please try again later.")
		return
	}
	if len(pending) == 0 {
		h.send(ctx, b, chatID, "No pending join requests.")
		return
	}
	for _, jr := range pending {
		name := jr.Username
		if name == "" {
			name = fmt.Sprintf("id %d", jr.TelegramID)
		}
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   fmt.Sprintf("%s request from @%s (%s)", jr.Role, name, timeLeft(jr.ExpiresOn)),
			ReplyMarkup: models.InlineKeyboardMarkup{
				InlineKeyboard: [][]models.InlineKeyboardButton{{
					{Text: "Approve", CallbackData: fmt.Sprintf("jr:approve:%d", jr.ID)},
					{Text: "Reject", CallbackData: fmt.Sprintf("jr:reject:%d", jr.ID)},
				}},
			},
		})
		if err != nil {
			h.logger.Warn("failed to send pending request", "join_request_id", jr.ID, "error", err)
		}
	}
}

func (h *Handler) handleStaff(ctx context.Context, b *bot.Bot, chatID, telegramID int64) {
	employees, err := h.staff.ListEmployees(ctx, telegramID)
	if errors.Is(err, service.ErrUnauthorized) {
		h.send(ctx, b, chatID, "This command is for managers.")
		return
	}
	if err != nil {
		h.logger.Error("failed to list employees", "telegram_id", telegramID, "error", err)
		h.send(ctx, b, chatID, "Something went wrong. Please try again later.")
		return
	}
	if len(employees) == 0 {
		h.send(ctx, b, chatID, "You have no employees yet. Use /invite to add some.")
		return
	}
	for _, emp := range employees {
		status := "active"
		var markup models.ReplyMarkup
		if emp.IsActive {
			markup = models.InlineKeyboardMarkup{
				InlineKeyboard: [][]models.InlineKeyboardButton{{
					{Text: "Deactivate", CallbackData: fmt.Sprintf("mgr:deact:%d", emp.ID)},
				}},
			}
		} else {
			status = "inactive"
		}
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        fmt.Sprintf("%s (%s) — %s", emp.FullName(), emp.Phone, status),
			ReplyMarkup: markup,
		})
		if err != nil {
			h.logger.Warn("failed to send staff entry", "employee_id", emp.ID, "error", err)
		}
	}
}

func (h *Handler) handleCallback(ctx context.Context, b *bot.Bot, cq *models.CallbackQuery) {
	// Acknowledge first so the client stops its spinner.
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID})
	if err != nil {
		h.logger.Warn("failed to answer callback query", "error", err)
	}

	chatID := callbackChatID(cq)
	if chatID == 0 {
		chatID = cq.From.ID
	}
	data := cq.Data

	switch {
	case strings.HasPrefix(data, "jr:"):
		h.handleDecisionCallback(ctx, b, chatID, cq.From.ID, data)
	case strings.HasPrefix(data, "prof:start:"):
		h.startProfileCallback(ctx, b, chatID, cq.From.ID, strings.TrimPrefix(data, "prof:start:"))
	case strings.HasPrefix(data, "inv:"):
		h.createInviteCallback(ctx, b, chatID, cq.From.ID, strings.TrimPrefix(data, "inv:"))
	case strings.HasPrefix(data, "mgr:deact:"):
		h.deactivateCallback(ctx, b, chatID, cq.From.ID, strings.TrimPrefix(data, "mgr:deact:"))
	case data == "main:invite":
		h.handleInviteMenu(ctx, b, chatID, cq.From.ID)
	case data == "main:pending":
		h.handlePending(ctx, b, chatID, cq.From.ID)
	case data == "main:staff":
		h.handleStaff(ctx, b, chatID, cq.From.ID)
	}
}

// timeLeft renders the remaining decision window for a pending request.
func timeLeft(expiresOn time.Time) string {
	if expiresOn.IsZero() {
		return "expiry unknown"
	}
	d := time.Until(expiresOn)
	switch {
	case d <= 0:
		return "invitation expired"
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd left", int(d.Hours()/24))
	case d >= time.Hour:
		return fmt.Sprintf("%dh left", int(d.Hours()))
	default:
		return fmt.Sprintf("%dm left", int(d.Minutes())+1)
	}
}

func callbackChatID(cq *models.CallbackQuery) int64 {
	switch cq.Message.Type {
	case models.MaybeInaccessibleMessageTypeMessage:
		if cq.Message.Message != nil {
			return cq.Message.Message.Chat.ID
		}
	case models.MaybeInaccessibleMessageTypeInaccessibleMessage:
		if cq.Message.InaccessibleMessage != nil {
			return cq.Message.InaccessibleMessage.Chat.ID
		}
	}
	return 0
}

func (h *Handler) handleDecisionCallback(ctx context.Context, b *bot.Bot, chatID, deciderID int64, data string) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return
	}
	id, err := strconv.ParseInt(parts[2], 10, 32)
	if err != nil {
		return
	}
	approve := parts[1] == "approve"

	jr, err := h.enrollment.HandleDecision(ctx, deciderID, int32(id), approve)
	switch {
	case errors.Is(err, service.ErrNotPending):
		h.send(ctx, b, chatID, "This request was already decided.")
	case errors.Is(err, service.ErrInvitationExpired):
		h.send(ctx, b, chatID, "The invitation behind this request expired, so it was rejected.")
	case errors.Is(err, service.ErrUnauthorized):
		h.send(ctx, b, chatID, "You cannot decide this request.")
	case err != nil:
		h.logger.Error("failed to decide join request", "decider_id", deciderID, "error", err)
		h.send(ctx, b, chatID, "Something went wrong. Please try again later.")
	case jr.Status == domain.JoinRequestStatusApproved:
		h.send(ctx, b, chatID, "Approved. The user was asked to complete their profile.")
	default:
		h.send(ctx, b, chatID, "Rejected.")
	}
}

func (h *Handler) startProfileCallback(ctx context.Context, b *bot.Bot, chatID, telegramID int64, arg string) {
	id, err := strconv.ParseInt(arg, 10, 32)
	if err != nil {
		return
	}
	jr, err := h.profiles.StartProfile(ctx, telegramID, int32(id))
	switch {
	case errors.Is(err, service.ErrNotApproved):
		h.send(ctx, b, chatID, "This request is not approved.")
		return
	case errors.Is(err, service.ErrUnauthorized):
		h.send(ctx, b, chatID, "This button is not yours.")
		return
	case err != nil:
		h.logger.Error("failed to start profile", "telegram_id", telegramID, "error", err)
		h.send(ctx, b, chatID, "Something went wrong. Please try again later.")
		return
	}

	h.sessions.Put(chatID, &Session{
		JoinRequestID: jr.ID,
		Role:          jr.Role,
		Step:          StepFirstName,
	})
	h.send(ctx, b, chatID, "Let's complete your profile. What is your first name?")
}

func (h *Handler) createInviteCallback(ctx context.Context, b *bot.Bot, chatID, telegramID int64, roleArg string) {
	role := domain.Role(roleArg)
	_, link, err := h.invitations.CreateInvitation(ctx, telegramID, role)
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		h.send(ctx, b, chatID, "You cannot create this kind of invitation.")
	case err != nil:
		h.logger.Error("failed to create invitation", "telegram_id", telegramID, "error", err)
		h.send(ctx, b, chatID, "Something went wrong. Please try again later.")
	default:
		h.send(ctx, b, chatID, fmt.Sprintf("Share this single-use link:\n%s", link))
	}
}

func (h *Handler) deactivateCallback(ctx context.Context, b *bot.Bot, chatID, telegramID int64, arg string) {
	id, err := strconv.ParseInt(arg, 10, 32)
	if err != nil {
		return
	}
	emp, err := h.staff.DeactivateEmployee(ctx, telegramID, int32(id))
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		h.send(ctx, b, chatID, "You cannot deactivate this user.")
	case err != nil:
		h.logger.Error("failed to deactivate employee", "telegram_id", telegramID, "error", err)
		h.send(ctx, b, chatID, "Something went wrong. Please try again later.")
	default:
		h.send(ctx, b, chatID, fmt.Sprintf("%s was deactivated.", emp.FullName()))
	}
}

// advanceProfile feeds one message into the active profile dialog.
func (h *Handler) advanceProfile(ctx context.Context, b *bot.Bot, chatID int64, from *models.User, text string) {
	sess, ok := h.sessions.Get(chatID)
	if !ok {
		return
	}

	switch sess.Step {
	case StepFirstName:
		if text == "" {
			h.send(ctx, b, chatID, "Please send your first name.")
			return
		}
		sess.FirstName = text
		sess.Step = StepLastName
		h.sessions.Put(chatID, sess)
		h.send(ctx, b, chatID, "And your last name?")
	case StepLastName:
		sess.LastName = text
		sess.Step = StepPhone
		h.sessions.Put(chatID, sess)
		h.send(ctx, b, chatID, "Your phone number?")
	case StepPhone:
		if service.NormalizePhone(text) == "" {
			h.send(ctx, b, chatID, "That does not look like a phone number. Try again.")
			return
		}
		sess.Phone = text
		if sess.Role == domain.RoleManager {
			sess.Step = StepLoginID
			h.sessions.Put(chatID, sess)
			h.send(ctx, b, chatID, "Choose a login for the web dashboard (3-32 chars: a-z 0-9 _ . -).")
			return
		}
		h.sessions.Put(chatID, sess)
		h.finalize(ctx, b, chatID, from, sess)
	case StepLoginID:
		sess.LoginID = strings.ToLower(text)
		sess.Step = StepPassword
		h.sessions.Put(chatID, sess)
		h.send(ctx, b, chatID, "Now choose a password (at least 6 characters).")
	case StepPassword:
		h.sessions.Put(chatID, sess)
		h.finalizeManager(ctx, b, chatID, from, sess, text)
	}
}

func (h *Handler) finalize(ctx context.Context, b *bot.Bot, chatID int64, from *models.User, sess *Session) {
	user, err := h.profiles.Finalize(ctx, service.ProfileInput{
		JoinRequestID: sess.JoinRequestID,
		TelegramID:    from.ID,
		Username:      username(from),
		FirstName:     sess.FirstName,
		LastName:      sess.LastName,
		Phone:         sess.Phone,
	})
	if err != nil {
		h.handleFinalizeError(ctx, b, chatID, sess, err)
		return
	}
	h.sessions.Delete(chatID)
	h.send(ctx, b, chatID, fmt.Sprintf("Welcome aboard, %s! You are now an active %s.", user.FirstName, strings.ToLower(string(user.Role))))
}

func (h *Handler) finalizeManager(ctx context.Context, b *bot.Bot, chatID int64, from *models.User, sess *Session, password string) {
	user, err := h.profiles.Finalize(ctx, service.ProfileInput{
		JoinRequestID: sess.JoinRequestID,
		TelegramID:    from.ID,
		Username:      username(from),
		FirstName:     sess.FirstName,
		LastName:      sess.LastName,
		Phone:         sess.Phone,
		LoginID:       sess.LoginID,
		Password:      password,
	})
	if err != nil {
		h.handleFinalizeError(ctx, b, chatID, sess, err)
		return
	}
	h.sessions.Delete(chatID)
	h.send(ctx, b, chatID, fmt.Sprintf("Welcome aboard, %s! You can now log in to the dashboard as %q.", user.FirstName, sess.LoginID))
}

func (h *Handler) handleFinalizeError(ctx context.Context, b *bot.Bot, chatID int64, sess *Session, err error) {
	switch {
	case errors.Is(err, service.ErrDuplicateLoginID):
		// Re-prompt for a different login, keeping the rest.
		sess.Step = StepLoginID
		h.sessions.Put(chatID, sess)
		h.send(ctx, b, chatID, "That login is already taken. Choose another one.")
	case errors.Is(err, service.ErrInvalidLoginID):
		sess.Step = StepLoginID
		h.sessions.Put(chatID, sess)
		h.send(ctx, b, chatID, "Logins are 3-32 characters of a-z 0-9 _ . - only. Try again.")
	case errors.Is(err, service.ErrInvalidInput):
		h.send(ctx, b, chatID, "Some fields were invalid. Send /cancel and start over.")
	case errors.Is(err, service.ErrNotApproved), errors.Is(err, service.ErrInvalidInvitation):
		h.sessions.Delete(chatID)
		h.send(ctx, b, chatID, "Your enrollment can no longer be completed. Ask for a new invitation.")
	default:
		h.logger.Error("failed to finalize enrollment", "error", err)
		h.send(ctx, b, chatID, "Something went wrong. Please try again.")
	}
}

func (h *Handler) send(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		h.logger.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}
