package telegram_bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"backend/internal/config"
	"backend/internal/repository"
	"backend/internal/service"
)

// Bot notifies users on Telegram about new child-data requests and lets
// them accept or decline without opening the app. Users link their
// account by storing their Telegram ID on their profile.
type Bot struct {
	api      *tgbotapi.BotAPI
	logger   *zap.Logger
	requests service.AccessRequestService
	userRepo repository.UserRepository
	cfg      *config.Config
}

// NewBot creates a new Telegram bot instance
func NewBot(cfg *config.Config, requests service.AccessRequestService, userRepo repository.UserRepository, logger *zap.Logger) (*Bot, error) {
	if !cfg.Notifications.Enabled || cfg.Notifications.TelegramBotToken == "" {
		logger.Info("Telegram bot is disabled (notifications.enabled=false or token is empty)")
		return nil, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Notifications.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", botAPI.Self.UserName))

	return &Bot{
		api:      botAPI,
		logger:   logger,
		requests: requests,
		userRepo: userRepo,
		cfg:      cfg,
	}, nil
}

// Start begins listening for updates from Telegram
func (b *Bot) Start(ctx context.Context) error {
	if b == nil {
		return nil // Bot is disabled
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Telegram bot started, waiting for updates...")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Telegram bot shutting down...")
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			if update.CallbackQuery != nil {
				b.handleCallbackQuery(update.CallbackQuery)
			} else if update.Message != nil {
				b.handleMessage(update.Message)
			}
		}
	}
}

// handleCallbackQuery processes callback queries from inline buttons
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	b.logger.Info("Received callback query",
		zap.String("data", query.Data),
		zap.Int64("user_id", query.From.ID),
	)

	// Acknowledge the callback query
	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Error("Failed to send callback response", zap.Error(err))
	}

	// Parse callback data: "accept:<request_id>" or "decline:<request_id>"
	parts := strings.SplitN(query.Data, ":", 2)
	if len(parts) != 2 {
		b.logger.Error("Failed to parse callback data: invalid format", zap.String("data", query.Data))
		b.sendMessage(query.From.ID, "❌ Erro ao processar a solicitação")
		return
	}
	action := parts[0]

	requestID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		b.logger.Error("Failed to parse request ID", zap.String("id", parts[1]), zap.Error(err))
		b.sendMessage(query.From.ID, "❌ Erro ao processar a solicitação")
		return
	}

	var accept bool
	var responseMessage string
	switch action {
	case "accept":
		accept = true
		responseMessage = "✅ Acesso concedido"
	case "decline":
		accept = false
		responseMessage = "❌ Acesso recusado"
	default:
		b.logger.Error("Unknown action", zap.String("action", action))
		b.sendMessage(query.From.ID, "❌ Ação desconhecida")
		return
	}

	// The responder is whoever pressed the button; resolve their account
	// from the linked Telegram ID.
	responder, err := b.userRepo.GetByTelegramID(query.From.ID)
	if err != nil || responder == nil {
		b.logger.Error("Responder has no linked account", zap.Int64("telegram_id", query.From.ID), zap.Error(err))
		b.sendMessage(query.From.ID, "❌ Sua conta do Telegram não está vinculada a um perfil")
		return
	}

	_, err = b.requests.Respond(requestID, responder.ID, accept)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestAlreadyResolved):
			b.sendMessage(query.From.ID, "ℹ️ Esta solicitação já foi respondida")
		case errors.Is(err, service.ErrRequestNotFound):
			b.sendMessage(query.From.ID, "❌ Solicitação não encontrada")
		case errors.Is(err, service.ErrNotRecipient):
			b.sendMessage(query.From.ID, "❌ Esta solicitação não é para você")
		default:
			b.logger.Error("Failed to respond to request", zap.Int64("request_id", requestID), zap.Error(err))
			b.sendMessage(query.From.ID, "❌ Erro ao atualizar a solicitação")
		}
		return
	}

	b.logger.Info("Child data request processed via Telegram",
		zap.Int64("request_id", requestID),
		zap.String("action", action),
	)

	// Send confirmation message
	b.sendMessage(query.From.ID, responseMessage)

	// Edit the original message to remove buttons
	edit := tgbotapi.NewEditMessageText(
		query.Message.Chat.ID,
		query.Message.MessageID,
		query.Message.Text+"\n\n"+responseMessage,
	)
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("Failed to edit message", zap.Error(err))
	}
}

// handleMessage processes incoming messages
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if message.IsCommand() {
		switch message.Command() {
		case "start":
			b.handleStartCommand(message)
		case "help":
			b.handleHelpCommand(message)
		default:
			b.sendMessage(message.Chat.ID, "Comando desconhecido. Use /help para ajuda.")
		}
	}
}

// handleStartCommand handles the /start command
func (b *Bot) handleStartCommand(message *tgbotapi.Message) {
	welcomeText := fmt.Sprintf(
		"👋 Olá, %s!\n\n"+
			"Eu aviso quando outra mãe pedir acesso aos dados dos seus filhos.\n\n"+
			"Quando chegar uma solicitação, você recebe uma notificação com botões para aceitar ou recusar.\n\n"+
			"Use /help para mais informações.",
		message.From.FirstName,
	)
	b.sendMessage(message.Chat.ID, welcomeText)
}

// handleHelpCommand handles the /help command
func (b *Bot) handleHelpCommand(message *tgbotapi.Message) {
	helpText := "📚 Ajuda:\n\n" +
		"/start - Mensagem de boas-vindas\n" +
		"/help - Esta ajuda\n\n" +
		"Quando alguém solicitar acesso aos dados dos seus filhos, você recebe uma notificação com dois botões:\n" +
		"✅ Aceitar - conceder acesso\n" +
		"❌ Recusar - negar acesso\n\n" +
		"Seu Telegram ID: " + strconv.FormatInt(message.From.ID, 10) +
		"\nAdicione este ID ao seu perfil para vincular sua conta."
	b.sendMessage(message.Chat.ID, helpText)
}

// SendChildDataRequestNotification notifies the recipient about a new
// child-data request with accept/decline buttons.
func (b *Bot) SendChildDataRequestNotification(recipientTelegramID int64, requestID int64, requesterName string) error {
	if b == nil {
		return fmt.Errorf("bot is disabled")
	}

	notificationText := fmt.Sprintf(
		"🔔 Nova solicitação de acesso\n\n"+
			"%s gostaria de ter acesso aos dados dos seus filhos para poder cuidar melhor deles.\n\n"+
			"Você deseja conceder o acesso?",
		requesterName,
	)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Aceitar", fmt.Sprintf("accept:%d", requestID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Recusar", fmt.Sprintf("decline:%d", requestID)),
		),
	)

	msg := tgbotapi.NewMessage(recipientTelegramID, notificationText)
	msg.ReplyMarkup = keyboard

	_, err := b.api.Send(msg)
	if err != nil {
		b.logger.Error("Failed to send request notification",
			zap.Int64("recipient_telegram_id", recipientTelegramID),
			zap.Int64("request_id", requestID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send notification: %w", err)
	}

	b.logger.Info("Request notification sent",
		zap.Int64("recipient_telegram_id", recipientTelegramID),
		zap.Int64("request_id", requestID),
	)

	return nil
}

// sendMessage is a helper to send a simple text message
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
