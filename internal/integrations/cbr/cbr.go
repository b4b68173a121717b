// Package cbr fetches daily currency exchange rates from the Central Bank
// of Russia SOAP service. Read-only; never consulted by the ledger.
package cbr

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/cardvault/card-service/internal/config"
)

// Client handles integration with the Central Bank of Russia
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new CBR client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.CBRURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// buildSOAPRequest creates a SOAP request for the rates on a given date
func (c *Client) buildSOAPRequest(onDate time.Time) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<GetCursOnDate xmlns="http://web.cbr.ru/">
					<On_date>%s</On_date>
				</GetCursOnDate>
			</soap12:Body>
		</soap12:Envelope>`, onDate.Format("2006-01-02"))
}

// sendRequest sends a SOAP request to CBR
func (c *Client) sendRequest(soapRequest string) ([]byte, error) {
	req, err := http.NewRequest("POST", c.url, bytes.NewBufferString(soapRequest))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/GetCursOnDate")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	c.log.Debugf("CBR XML response: %s", string(body))

	return body, nil
}

// parseRates extracts currency code to rate-per-unit pairs from the XML
func (c *Client) parseRates(rawBody []byte) (map[string]float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %v", err)
	}

	elements := doc.FindElements("//ValuteData/ValuteCursOnDate")
	if len(elements) == 0 {
		return nil, fmt.Errorf("no rate data found in XML")
	}

	rates := make(map[string]float64, len(elements))
	for _, el := range elements {
		codeEl := el.FindElement("./VchCode")
		cursEl := el.FindElement("./Vcurs")
		nomEl := el.FindElement("./Vnom")
		if codeEl == nil || cursEl == nil || nomEl == nil {
			continue
		}

		var curs, nom float64
		if _, err := fmt.Sscanf(strings.TrimSpace(cursEl.Text()), "%f", &curs); err != nil {
			continue
		}
		if _, err := fmt.Sscanf(strings.TrimSpace(nomEl.Text()), "%f", &nom); err != nil || nom == 0 {
			continue
		}
		rates[strings.TrimSpace(codeEl.Text())] = curs / nom
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("no parsable rates in XML")
	}
	return rates, nil
}

// GetRates retrieves today's currency rates in RUB per unit
func (c *Client) GetRates() (map[string]float64, error) {
	body, err := c.sendRequest(c.buildSOAPRequest(time.Now()))
	if err != nil {
		return nil, err
	}

	rates, err := c.parseRates(body)
	if err != nil {
		return nil, err
	}

	c.log.Infof("Retrieved %d currency rates", len(rates))
	return rates, nil
}
