// Command storebot wires the storefront backend together: environment
// configuration, structured logging, the SQLite database, and a
// Telegram long-poll loop acting as the calling layer. The loop is a
// thin demonstration surface: it registers users on first contact and
// serves the read-side commands; the full conversation flow of the bot
// lives outside this repository.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avalle/go-store-backend/internal/config"
	"github.com/avalle/go-store-backend/internal/domain"
	"github.com/avalle/go-store-backend/internal/format"
	"github.com/avalle/go-store-backend/internal/repo"
	"github.com/avalle/go-store-backend/internal/services"
	"github.com/avalle/go-store-backend/internal/telegram"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	setupLogger(cfg)

	if cfg.BotToken == "" {
		log.Fatal().Msg("TELEGRAM_TOKEN is required")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to telegram")
	}
	log.Info().Str("username", bot.Self.UserName).Msg("bot authorized")

	client := telegram.NewClient(bot, cfg.SendRPS, cfg.SendBurst)
	ledger := services.NewLedgerService(db, cfg.DefaultLanguage)
	catalog := services.NewCatalogService(db, client)
	orders := services.NewOrderService(db)
	admins := services.NewAdminService(db)

	renderer := format.Renderer{Loc: englishCatalog{}, Price: euroCents{}}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	log.Info().Msg("listening for updates")
	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			log.Info().Msg("shutting down")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			handleMessage(ctx, update.Message, client, renderer, ledger, catalog, orders, admins, !cfg.FullOrderInfo)
		}
	}
}

// handleMessage upserts the sender's wallet account and dispatches the
// supported read-side commands. compactReceipts selects the short
// customer receipt layout (FULL_ORDER_INFO=false).
func handleMessage(
	ctx context.Context,
	msg *tgbotapi.Message,
	client *telegram.Client,
	renderer format.Renderer,
	ledger *services.LedgerService,
	catalog *services.CatalogService,
	orders *services.OrderService,
	admins *services.AdminService,
	compactReceipts bool,
) {
	user, err := ledger.CreateUser(ctx, telegram.ProfileFromUser(msg.From))
	if err != nil {
		log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("register user")
		return
	}

	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		var b strings.Builder
		fmt.Fprintf(&b, "Welcome, %s!\n/products - the catalog\n/balance - your credit\n/orders - your orders", user.FullName())
		if listed, err := admins.ListedOnHelp(ctx); err == nil && len(listed) > 0 {
			b.WriteString("\n\nFor support contact:")
			for i := range listed {
				b.WriteString("\n")
				b.WriteString(listed[i].User.Mention())
			}
		}
		reply(ctx, client, chatID, b.String())
	case "products":
		list, err := catalog.ListActive(ctx)
		if err != nil {
			log.Error().Err(err).Msg("list products")
			return
		}
		for i := range list {
			text, err := renderer.Product(&list[i], format.StyleFull, 0)
			if err != nil {
				continue
			}
			if _, err := client.SendProduct(ctx, chatID, &list[i], text); err != nil {
				log.Warn().Err(err).Int64("product_id", list[i].ID).Msg("send product failed")
			}
		}
	case "balance":
		reply(ctx, client, chatID, fmt.Sprintf("Your credit: %s", renderer.Price.Format(user.Credit)))
	case "orders":
		list, _, err := orders.ListPage(ctx, user.UserID, 1, 10)
		if err != nil {
			log.Error().Err(err).Msg("list orders")
			return
		}
		if len(list) == 0 {
			reply(ctx, client, chatID, "You have no orders yet.")
			return
		}
		reply(ctx, client, chatID, renderOrders(renderer, list, compactReceipts))
	}
}

// renderOrders formats a customer's order history into one reply
// message.
func renderOrders(renderer format.Renderer, list []domain.Order, compact bool) string {
	var b strings.Builder
	for i := range list {
		b.WriteString(renderer.Order(&list[i], true, compact))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func reply(ctx context.Context, client *telegram.Client, chatID int64, text string) {
	if _, err := client.SendText(ctx, chatID, text); err != nil {
		// Delivery failures are logged and dropped; persisted state is
		// already committed and must not be affected.
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("reply failed")
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("metrics endpoint stopped")
	}
}

func setupLogger(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// englishCatalog is a minimal built-in string catalog standing in for
// the bot's localization files. Placeholders use {name} syntax.
type englishCatalog struct{}

var englishStrings = map[string]string{
	"product_format_string":    "<b>{name}</b>\n{description}\n\nPrice: {price}\n{cart}",
	"in_cart_format_string":    "{quantity} in cart",
	"order_number":             "Order #{id}",
	"order_format_string":      "Buyer: {user}\nDate: {date}\nItems:\n{items}Notes: {notes}\nTotal: {value}",
	"user_order_format_string": "{status_emoji} {status_text}\n{items}Notes: {notes}\nTotal: {value}",
	"refund_reason":            "\nRefund reason: {reason}",
	"emoji_completed":          "✅",
	"emoji_refunded":           "✴️",
	"emoji_not_processed":      "*️⃣",
	"text_completed":           "Completed",
	"text_refunded":            "Refunded",
	"text_not_processed":       "Pending",
}

// Get implements format.Localizer with naive placeholder substitution.
func (englishCatalog) Get(key string, params map[string]any) string {
	s, ok := englishStrings[key]
	if !ok {
		return key
	}
	for k, v := range params {
		s = strings.ReplaceAll(s, "{"+k+"}", fmt.Sprint(v))
	}
	return s
}

// euroCents formats minor units as a euro amount.
type euroCents struct{}

// Format implements format.PriceFormatter.
func (euroCents) Format(minorUnits int64) string {
	sign := ""
	if minorUnits < 0 {
		sign = "-"
		minorUnits = -minorUnits
	}
	return fmt.Sprintf("%s%d.%02d €", sign, minorUnits/100, minorUnits%100)
}
