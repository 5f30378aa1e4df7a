// Package weather looks up current conditions from OpenWeatherMap.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultIconFormat is the OpenWeatherMap icon location.
const DefaultIconFormat = "https://openweathermap.org/img/wn/%s.png"

var (
	// ErrUnexpectedStatus is returned when the API answers with a non-200 status.
	ErrUnexpectedStatus = errors.New("weather api returned unexpected status")
	// ErrNoCondition is returned when the response carries no weather entry.
	ErrNoCondition = errors.New("weather api returned no condition")
)

// Condition is one entry of the "weather" array.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type currentResponse struct {
	Weather []Condition `json:"weather"`
}

// Client queries current weather for fixed coordinates.
type Client struct {
	BaseURL    string
	// IconFormat is a fmt pattern with one %s for the icon code.
	IconFormat string
	APIKey     string
	Latitude   float64
	Longitude  float64
	Client     *http.Client
}

// Current returns the first reported condition.
func (c *Client) Current(ctx context.Context) (Condition, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return Condition{}, fmt.Errorf("weather api key is not configured")
	}
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(c.Longitude, 'f', -1, 64))
	params.Set("appid", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Condition{}, fmt.Errorf("build request: %w", err)
	}
	httpClient := c.Client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return Condition{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Condition{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	var body currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Condition{}, fmt.Errorf("decode weather: %w", err)
	}
	if len(body.Weather) == 0 {
		return Condition{}, ErrNoCondition
	}
	return body.Weather[0], nil
}

// IconURL renders the icon image URL for an icon code.
func (c *Client) IconURL(icon string) string {
	if strings.TrimSpace(icon) == "" {
		return ""
	}
	format := c.IconFormat
	if format == "" {
		format = DefaultIconFormat
	}
	return fmt.Sprintf(format, icon)
}
