package notifier

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/vivapicks/picks-platform/pkg/contracts/events"
)

// Templates dos e-mails do broadcast. Mesma identidade visual do site
// (fundo escuro, laranja #f97316), com escape HTML nos campos do pick.

var welcomeTmpl = template.Must(template.New("welcome").Parse(`
<div style="font-family: sans-serif; max-width: 600px; padding: 20px; border: 1px solid #333; background: #111; color: #fff;">
  <h1 style="color: #f97316; margin-bottom: 20px;">WELCOME TO THE INNER CIRCLE</h1>
  <p>You have successfully secured your access to <strong>Viva Picks</strong>.</p>
  <p>We provide high-frequency sports betting intel powered by advanced algorithmic modeling.</p>
  <div style="background: #222; padding: 15px; margin: 20px 0; border-left: 4px solid #f97316;">
    <strong>NEXT STEPS:</strong>
    <ul style="padding-left: 20px;">
      <li>Log in to your Dashboard</li>
      <li>Activate your Subscription for full access</li>
      <li>Watch for daily signals</li>
    </ul>
  </div>
  <p style="margin-top: 30px; font-size: 0.8rem; color: #666;">
    System Message // Automated Generation<br>
    Viva Picks Intelligence
  </p>
</div>`))

var pickTmpl = template.Must(template.New("pick").Parse(`
<div style="font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; max-width: 600px; margin: 0 auto; background-color: #000; color: #fff; border: 1px solid #333;">
  <div style="background-color: #111; padding: 20px; text-align: center; border-bottom: 2px solid #f97316;">
    <h1 style="color: #f97316; margin: 0; font-size: 24px; letter-spacing: 2px;">VIVA PICKS</h1>
    <p style="color: #888; font-size: 10px; margin: 5px 0 0 0; letter-spacing: 1px;">{{.Banner}}</p>
  </div>
  <div style="padding: 30px 20px;">
    <div style="text-align: center; margin-bottom: 30px;">
      <span style="background-color: #f97316; color: #000; padding: 4px 8px; font-weight: bold; font-size: 11px;">{{.Sport}} {{.Label}}</span>
    </div>
    <h2 style="margin: 0 0 10px 0; font-size: 20px; text-align: center;">{{.Matchup}}</h2>
    <div style="text-align: center; color: #888; font-size: 14px; margin-bottom: 25px;">{{.Time}}</div>
    <div style="background-color: #111; border: 1px solid #333; padding: 20px; margin-bottom: 25px;">
      <div style="margin-bottom: 15px; border-bottom: 1px solid #333; padding-bottom: 15px;">
        <span style="color: #888;">PICK</span>
        <span style="color: #f97316; font-weight: bold; font-size: 18px; float: right;">{{.Pick}}</span>
      </div>
      <div style="margin-bottom: 5px;">
        <span style="color: #888;">ODDS</span><span style="float: right;">{{.Odds}}</span>
      </div>
      <div style="margin-bottom: 5px;">
        <span style="color: #888;">UNITS</span><span style="float: right;">{{.Units}}</span>
      </div>
      <div>
        <span style="color: #888;">{{.LastRowLabel}}</span><span style="float: right; font-weight: bold;">{{.LastRowValue}}</span>
      </div>
    </div>
    {{if .Analysis}}
    <div style="background-color: #1a1a1a; padding: 15px; font-size: 14px; line-height: 1.5; color: #ccc; border-left: 3px solid #f97316;">
      <strong style="color: #fff; display: block; margin-bottom: 5px;">ANALYSIS:</strong>
      {{.Analysis}}
    </div>
    {{end}}
  </div>
  <div style="background-color: #111; padding: 20px; text-align: center; font-size: 10px; color: #666; border-top: 1px solid #333;">
    <p>VIVA PICKS &copy; 2026</p>
  </div>
</div>`))

type pickMailData struct {
	Banner       string
	Label        string
	Sport        string
	Matchup      string
	Time         string
	Pick         string
	Odds         string
	Units        string
	LastRowLabel string
	LastRowValue string
	Analysis     string
}

func renderWelcome() (string, error) {
	var b strings.Builder
	err := welcomeTmpl.Execute(&b, nil)
	return b.String(), err
}

func renderPickPublished(e events.PickPublished) (string, error) {
	units := e.Units
	if units == "" {
		units = "1u"
	}
	betType := e.BetType
	if betType == "" {
		betType = "Standard"
	}
	var b strings.Builder
	err := pickTmpl.Execute(&b, pickMailData{
		Banner: "INTELLIGENCE ACQUIRED", Label: "SIGNAL",
		Sport: e.Sport, Matchup: e.Matchup, Time: e.Time,
		Pick: e.Pick, Odds: e.Odds, Units: units,
		LastRowLabel: "TYPE", LastRowValue: betType,
		Analysis: e.Analysis,
	})
	return b.String(), err
}

func renderPickUpdated(e events.PickPublished) (string, error) {
	result := e.Result
	if result == "" {
		result = "PENDING"
	}
	units := e.Units
	if units == "" {
		units = "1u"
	}
	var b strings.Builder
	err := pickTmpl.Execute(&b, pickMailData{
		Banner: "INTELLIGENCE UPDATED", Label: "UPDATE",
		Sport: e.Sport, Matchup: e.Matchup, Time: e.Time,
		Pick: e.Pick, Odds: e.Odds, Units: units,
		LastRowLabel: "RESULT", LastRowValue: result,
		Analysis: e.Analysis,
	})
	return b.String(), err
}

var betSettledTmpl = template.Must(template.New("settled").Parse(`
<div style="font-family: sans-serif; max-width: 600px; padding: 20px; border: 1px solid #333; background: #111; color: #fff;">
  <h1 style="color: {{.Color}}; margin-bottom: 10px;">{{.Headline}}</h1>
  <p>Your paper bet was settled as <strong>{{.Result}}</strong>.</p>
  <div style="background: #222; padding: 15px; margin: 20px 0; border-left: 4px solid {{.Color}};">
    <div>Stake: <strong>{{.Stake}}</strong></div>
    {{if .Payout}}<div>Payout: <strong>{{.Payout}}</strong></div>{{end}}
    <div>Balance: <strong>{{.Balance}}</strong></div>
  </div>
</div>`))

func dollars(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func renderBetSettled(e events.BetSettled) (string, error) {
	d := struct {
		Color, Headline, Result, Stake, Payout, Balance string
	}{
		Color:    "#ef4444",
		Headline: "BET LOST",
		Result:   strings.ToUpper(e.Result),
		Stake:    dollars(e.AmountCents),
		Balance:  dollars(e.BalanceCents),
	}
	if e.Result == "won" {
		d.Color = "#4ade80"
		d.Headline = "BET WON"
		d.Payout = dollars(e.PayoutCents)
	}
	var b strings.Builder
	err := betSettledTmpl.Execute(&b, d)
	return b.String(), err
}
