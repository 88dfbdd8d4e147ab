package cbr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	soapNamespace = "http://www.w3.org/2003/05/soap-envelope"
	cbrNamespace  = "http://web.cbr.ru/"
	keyRateAction = cbrNamespace + "KeyRate"

	// The service returns one row per business day in the window.
	lookback   = 30 * 24 * time.Hour
	dateLayout = "2006-01-02"
)

// CBRClient fetches the Central Bank of Russia key rate, offered to the
// lender as a reference when choosing a loan's annual rate
type CBRClient struct {
	url    string
	client *http.Client
	log    *logrus.Logger
	now    func() time.Time
}

func NewCBRClient(url string, log *logrus.Logger) *CBRClient {
	return &CBRClient{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
		now:    time.Now,
	}
}

// GetKeyRate retrieves the current key rate in percent per year
func (c *CBRClient) GetKeyRate(ctx context.Context) (decimal.Decimal, error) {
	to := c.now()
	envelope, err := keyRateEnvelope(to.Add(-lookback), to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build key rate request: %w", err)
	}

	body, err := c.call(ctx, envelope)
	if err != nil {
		return decimal.Zero, fmt.Errorf("key rate request: %w", err)
	}

	rate, err := latestRate(body)
	if err != nil {
		return decimal.Zero, err
	}

	c.log.WithField("key_rate", rate.StringFixed(2)).Info("Key rate fetched")
	return rate, nil
}

// keyRateEnvelope renders a SOAP 1.2 KeyRate call for [from, to]
func keyRateEnvelope(from, to time.Time) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	env := doc.CreateElement("soap12:Envelope")
	env.CreateAttr("xmlns:soap12", soapNamespace)

	op := env.CreateElement("soap12:Body").CreateElement("KeyRate")
	op.CreateAttr("xmlns", cbrNamespace)
	op.CreateElement("fromDate").SetText(from.Format(dateLayout))
	op.CreateElement("ToDate").SetText(to.Format(dateLayout))

	return doc.WriteToBytes()
}

func (c *CBRClient) call(ctx context.Context, envelope []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(envelope))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", keyRateAction)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	c.log.WithField("bytes", len(body)).Debug("CBR responded")
	return body, nil
}

// latestRate picks the KR row with the newest DT. Rows without a
// parseable DT only win when no row has one.
func latestRate(raw []byte) (decimal.Decimal, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse XML: %w", err)
	}

	rows := doc.FindElements("//diffgram/KeyRate/KR")
	if len(rows) == 0 {
		return decimal.Zero, fmt.Errorf("no key rate data found in XML")
	}

	best := rows[0]
	var bestAt time.Time
	for _, row := range rows {
		dt := row.SelectElement("DT")
		if dt == nil {
			continue
		}
		at, err := time.Parse(time.RFC3339, dt.Text())
		if err != nil {
			continue
		}
		if at.After(bestAt) {
			best, bestAt = row, at
		}
	}

	el := best.SelectElement("Rate")
	if el == nil {
		return decimal.Zero, fmt.Errorf("rate element not found in XML")
	}
	rate, err := decimal.NewFromString(el.Text())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse rate %q: %w", el.Text(), err)
	}
	return rate, nil
}
