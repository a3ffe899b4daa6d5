package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

const oddsProviderName = ProviderOddsAPI

// GameOdds represents the moneyline prices for one game from one bookmaker
type GameOdds struct {
	HomeTeamID int
	AwayTeamID int
	HomeOdds   *float64
	AwayOdds   *float64
}

// OddsKey identifies a game in the odds feed the same way the schedule does
type OddsKey struct {
	HomeTeamID int
	AwayTeamID int
}

// OddsClient talks to The Odds API for MLB h2h moneylines
type OddsClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	bookmaker  string
	region     string
	logger     *logrus.Logger
}

// NewOddsClient creates a new Odds API client
func NewOddsClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey, bookmaker, region string, logger *logrus.Logger) *OddsClient {
	return &OddsClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		bookmaker:  bookmaker,
		region:     region,
		logger:     logger,
	}
}

// wire structs for the odds endpoint

type oddsTeamRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type oddsEvent struct {
	CommenceTime string      `json:"commence_time"`
	HomeTeam     oddsTeamRef `json:"home_team"`
	AwayTeam     oddsTeamRef `json:"away_team"`
	Bookmakers   []struct {
		Key     string `json:"key"`
		Markets []struct {
			Key      string `json:"key"`
			Outcomes []struct {
				Name  string  `json:"name"`
				Price float64 `json:"price"`
			} `json:"outcomes"`
		} `json:"markets"`
	} `json:"bookmakers"`
}

// Moneylines fetches American-format h2h prices for games commencing on the
// given date (YYYY-MM-DD), restricted to the configured bookmaker. Games
// without that bookmaker are absent from the result, which downstream
// treats as null odds.
func (c *OddsClient) Moneylines(ctx context.Context, date string) (map[OddsKey]GameOdds, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", c.region)
	params.Set("markets", "h2h")
	params.Set("oddsFormat", "american")

	fullURL := fmt.Sprintf("%s/sports/baseball_mlb/odds?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, NewProviderError(oddsProviderName, ErrCodeUpstreamUnavailable, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, NewProviderError(oddsProviderName, ErrCodeAuthenticationFailed, "invalid API key", ErrAuthenticationFailed)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewProviderError(oddsProviderName, ErrCodeRateLimitExceeded, "rate limit exceeded", ErrRateLimitExceeded)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, NewProviderError(oddsProviderName, ErrCodeUpstreamUnavailable,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), ErrUpstreamUnavailable)
	}

	var events []oddsEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, NewProviderError(oddsProviderName, ErrCodeMalformedResponse, "failed to parse response", err)
	}

	lines := make(map[OddsKey]GameOdds)
	for _, event := range events {
		if !strings.HasPrefix(event.CommenceTime, date) {
			continue
		}
		odds, ok := c.extractMoneyline(event)
		if !ok {
			continue
		}
		lines[OddsKey{HomeTeamID: odds.HomeTeamID, AwayTeamID: odds.AwayTeamID}] = odds
	}

	return lines, nil
}

// extractMoneyline pulls the configured bookmaker's h2h prices from one event
func (c *OddsClient) extractMoneyline(event oddsEvent) (GameOdds, bool) {
	for _, book := range event.Bookmakers {
		if book.Key != c.bookmaker {
			continue
		}
		for _, market := range book.Markets {
			if market.Key != "h2h" {
				continue
			}
			odds := GameOdds{
				HomeTeamID: event.HomeTeam.ID,
				AwayTeamID: event.AwayTeam.ID,
			}
			for _, outcome := range market.Outcomes {
				price := outcome.Price
				switch outcome.Name {
				case event.HomeTeam.Name:
					odds.HomeOdds = &price
				case event.AwayTeam.Name:
					odds.AwayOdds = &price
				}
			}
			if odds.HomeOdds == nil || odds.AwayOdds == nil {
				c.logger.WithFields(logrus.Fields{
					"home": event.HomeTeam.Name,
					"away": event.AwayTeam.Name,
				}).Warn("Incomplete moneyline outcomes, skipping event")
				return GameOdds{}, false
			}
			return odds, true
		}
		break
	}
	return GameOdds{}, false
}
