package ratefeed

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/shikshapay/emi-service/internal/config"
	"github.com/sirupsen/logrus"
)

// Client fetches the published base lending rate used to seed default plan
// interest rates.
type Client struct {
	url    string
	margin float64
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new rate feed client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url:    cfg.RateFeedURL,
		margin: cfg.BaseRateMargin,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// buildRequest creates the rate query body for the feed
func (c *Client) buildRequest() string {
	asOf := time.Now().Format("2006-01-02")
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<RateQuery>
			<Series>BASE_LENDING_RATE</Series>
			<AsOf>%s</AsOf>
		</RateQuery>`, asOf)
}

func (c *Client) sendRequest(body string) ([]byte, error) {
	req, err := http.NewRequest("POST", c.url, bytes.NewBufferString(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	c.log.Debugf("Rate feed XML response: %s", string(raw))
	return raw, nil
}

// parseResponse extracts the most recent rate observation from the feed XML
func (c *Client) parseResponse(raw []byte) (float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return 0, fmt.Errorf("failed to parse XML: %v", err)
	}

	observations := doc.FindElements("//RateSeries/Observation")
	if len(observations) == 0 {
		return 0, fmt.Errorf("no rate data found in XML")
	}

	rateElement := observations[0].FindElement("./Rate")
	if rateElement == nil {
		return 0, fmt.Errorf("rate element not found in XML")
	}

	var rate float64
	if _, err := fmt.Sscanf(rateElement.Text(), "%f", &rate); err != nil {
		return 0, fmt.Errorf("failed to parse rate: %v", err)
	}
	return rate, nil
}

// GetBaseRate retrieves the current base lending rate and adds the product
// margin on top.
func (c *Client) GetBaseRate() (float64, error) {
	raw, err := c.sendRequest(c.buildRequest())
	if err != nil {
		return 0, err
	}

	rate, err := c.parseResponse(raw)
	if err != nil {
		return 0, err
	}

	rate += c.margin
	c.log.Infof("Retrieved base rate: %.2f%% (including %.2f%% margin)", rate, c.margin)
	return rate, nil
}
