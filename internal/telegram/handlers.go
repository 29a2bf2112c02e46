package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"frontierbot/internal/finance"
	"frontierbot/internal/openai"
	"frontierbot/internal/storage"
)

var (
	// /frontier [years=N|Ny] [rf=X] [short] [cap=X] [pts=N]
	reFrontier = regexp.MustCompile(`^/frontier(?:@[\w_]+)?(\s+.*)?$`)
	// /prices [years=N|Ny]
	rePrices = regexp.MustCompile(`^/prices(?:@[\w_]+)?(\s+.*)?$`)
	// /history [years=N|Ny]
	reHistory = regexp.MustCompile(`^/history(?:@[\w_]+)?(\s+.*)?$`)
	// /explain
	reExplain = regexp.MustCompile(`^/explain(?:@[\w_]+)?$`)
	// /usage [days]
	reUsage = regexp.MustCompile(`^/usage(?:@[\w_]+)?(?:\s+(\d+))?$`)
	// /help or /start
	reHelp = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)

	reYears = regexp.MustCompile(`^(?:years=)?(\d+)y?$`)
)

type Handlers struct {
	api     *tgbotapi.BotAPI
	store   *storage.Store
	explain *openai.Commentator

	mu          sync.Mutex
	lastSummary string // most recent tangency summary, for /explain
}

func NewHandlers(api *tgbotapi.BotAPI, store *storage.Store, openAIKey string) *Handlers {
	return &Handlers{
		api:     api,
		store:   store,
		explain: openai.NewCommentator(openAIKey),
	}
}

// parseFrontierArgs parses the optional /frontier arguments on top of the
// defaults: "5y" or "years=5", "rf=2.5" (annual %), "short", "cap=0.3",
// "pts=80". Everything is clamped to its supported range.
func parseFrontierArgs(args string) finance.FrontierConfig {
	cfg := finance.DefaultConfig()
	for _, tok := range strings.Fields(strings.ToLower(args)) {
		switch {
		case tok == "short":
			cfg.AllowShort = true
		case strings.HasPrefix(tok, "rf="):
			if v, err := strconv.ParseFloat(tok[3:], 64); err == nil {
				cfg.RiskFree = v / 100.0
			}
		case strings.HasPrefix(tok, "cap="):
			if v, err := strconv.ParseFloat(tok[4:], 64); err == nil {
				cfg.BTCCap = v
			}
		case strings.HasPrefix(tok, "pts="):
			if v, err := strconv.Atoi(tok[4:]); err == nil {
				cfg.Points = v
			}
		default:
			if g := reYears.FindStringSubmatch(tok); g != nil {
				if v, err := strconv.Atoi(g[1]); err == nil {
					cfg.Years = v
				}
			}
		}
	}
	return cfg.Clamp()
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	txt := strings.TrimSpace(m.Text)
	switch {
	case reFrontier.MatchString(txt):
		g := reFrontier.FindStringSubmatch(txt)
		h.logUsage("/frontier", m.Chat.ID)
		h.handleFrontier(m.Chat.ID, parseFrontierArgs(g[1]))

	case rePrices.MatchString(txt):
		g := rePrices.FindStringSubmatch(txt)
		h.logUsage("/prices", m.Chat.ID)
		h.handlePrices(m.Chat.ID, parseFrontierArgs(g[1]).Years)

	case reHistory.MatchString(txt):
		g := reHistory.FindStringSubmatch(txt)
		h.logUsage("/history", m.Chat.ID)
		h.handleHistory(m.Chat.ID, parseFrontierArgs(g[1]).Years)

	case reExplain.MatchString(txt):
		h.logUsage("/explain", m.Chat.ID)
		h.handleExplain(m.Chat.ID)

	case reUsage.MatchString(txt):
		g := reUsage.FindStringSubmatch(txt)
		days := 7
		if g[1] != "" {
			fmt.Sscanf(g[1], "%d", &days)
			if days < 1 {
				days = 1
			}
			if days > 90 {
				days = 90
			}
		}
		h.logUsage("/usage", m.Chat.ID)
		h.handleUsage(m.Chat.ID, days)

	case reHelp.MatchString(txt):
		h.handleHelp(m.Chat.ID)
	}
}

func (h *Handlers) handleFrontier(chatID int64, cfg finance.FrontierConfig) {
	series, stats, err := finance.StatsForYears(cfg.Years)
	if err != nil {
		h.reply(chatID, "Price data unavailable: "+err.Error())
		return
	}
	set, err := finance.ComputeFrontier(stats, cfg)
	if err != nil {
		if errors.Is(err, finance.ErrNoFeasibleFrontier) {
			h.reply(chatID, "No feasible frontier points with the current constraints. "+
				"Try increasing history length, allowing shorting (short), or raising the BTC cap (cap=).")
			return
		}
		h.reply(chatID, "Frontier failed: "+err.Error())
		return
	}
	img, err := finance.RenderFrontierChart(set, cfg)
	if err != nil {
		h.reply(chatID, "Chart failed: "+err.Error())
		return
	}

	summary := finance.Summary(set, cfg, series.Rows())
	h.mu.Lock()
	h.lastSummary = summary
	h.mu.Unlock()

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "frontier.png", Bytes: img})
	photo.Caption = summary
	h.api.Send(photo)
}

func (h *Handlers) handlePrices(chatID int64, years int) {
	series, stats, err := finance.StatsForYears(years)
	if err != nil {
		h.reply(chatID, "Price data unavailable: "+err.Error())
		return
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Rows: %d return observations (%d prices)\n```\n%s```",
		stats.Rows, series.Rows(), series.Tail(5)))
	msg.ParseMode = "Markdown"
	h.api.Send(msg)
}

func (h *Handlers) handleHistory(chatID int64, years int) {
	series, _, err := finance.StatsForYears(years)
	if err != nil {
		h.reply(chatID, "Price data unavailable: "+err.Error())
		return
	}
	img, err := finance.RenderHistoryChart(series, years)
	if err != nil {
		h.reply(chatID, "Chart failed: "+err.Error())
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "history.png", Bytes: img})
	photo.Caption = fmt.Sprintf("BTC/SPX/GOLD indexed to 100 • %dy", years)
	h.api.Send(photo)
}

func (h *Handlers) handleExplain(chatID int64) {
	h.mu.Lock()
	summary := h.lastSummary
	h.mu.Unlock()
	if summary == "" {
		h.reply(chatID, "Run /frontier first, then /explain the result.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()
	out, err := h.explain.ExplainAllocation(ctx, summary)
	if err != nil {
		h.reply(chatID, "Explain failed: "+err.Error())
		return
	}
	msg := tgbotapi.NewMessage(chatID, out)
	msg.ParseMode = "Markdown"
	h.api.Send(msg)
}

func (h *Handlers) handleUsage(chatID int64, days int) {
	stats, err := h.store.FetchUsageStats(days)
	if err != nil {
		h.reply(chatID, "Usage failed: "+err.Error())
		return
	}
	ua := finance.NewUsageAnalytics()
	img, err := ua.MakeUsageChart(stats, days)
	if err != nil {
		h.reply(chatID, ua.FormatUsageStatsText(stats, days))
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "usage.png", Bytes: img})
	photo.Caption = ua.FormatUsageStatsText(stats, days)
	h.api.Send(photo)
}

func (h *Handlers) handleHelp(chatID int64) {
	help := "Commands\n\n" +
		"- /frontier [Ny] [rf=X] [short] [cap=X] [pts=N] - Efficient frontier chart for BTC/SPX/GOLD\n" +
		"    Ny: history length 2-10 years (default 5y)\n" +
		"    rf=X: risk-free annual % 0-10 (default 0)\n" +
		"    short: allow shorting, bounds (-1,1) instead of (0,1)\n" +
		"    cap=X: BTC max allocation 0-0.65 (default 0.65)\n" +
		"    pts=N: sweep resolution 10-120 (default 60)\n" +
		"- /prices [Ny] - Row count and tail of recent closes\n" +
		"- /history [Ny] - Indexed price history chart\n" +
		"- /explain - Plain-language read of the last max-Sharpe portfolio\n" +
		"- /usage [days] - Command usage stats\n" +
		"\nTip: use cap= to see how the frontier and Max-Sharpe shift."
	h.reply(chatID, help)
}

func (h *Handlers) logUsage(command string, chatID int64) {
	_ = h.store.LogUsage(command, chatID)
}

func (h *Handlers) reply(chatID int64, text string) {
	h.api.Send(tgbotapi.NewMessage(chatID, text))
}
