package pm

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DateLayout = "2006-01-02"

func (c *Client) GetMeter(ctx context.Context, meterID string) (*Meter, error) {
	var meter Meter
	req := &Request{Path: "/meter/" + meterID, Mock: "meter"}
	if err := c.Call(ctx, req, &meter); err != nil {
		return nil, err
	}
	if meter.ID == "" {
		meter.ID = meterID
	}
	return &meter, nil
}

// MeterExists reports false only when Portfolio Manager answers 404 for the meter.
func (c *Client) MeterExists(ctx context.Context, meterID string) (bool, error) {
	if meterID == "" {
		return false, nil
	}
	_, err := c.GetMeter(ctx, meterID)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) CreateMeter(ctx context.Context, propertyID string, meter *Meter) (string, error) {
	var resp Response
	req := &Request{Method: http.MethodPost, Path: "/property/" + propertyID + "/meter", Body: meter, Mock: "created"}
	if err := c.Call(ctx, req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create meter for property %s: no id in response", propertyID)
	}
	return resp.ID, nil
}

func (c *Client) UpdateMeter(ctx context.Context, meterID string, meter *Meter) error {
	req := &Request{Method: http.MethodPut, Path: "/meter/" + meterID, Body: meter, Mock: "ok"}
	return c.Call(ctx, req, nil)
}

func (c *Client) DeleteMeter(ctx context.Context, meterID string) error {
	req := &Request{Method: http.MethodDelete, Path: "/meter/" + meterID, Mock: "ok"}
	return c.Call(ctx, req, nil)
}

// ListMeters returns the ids of all meters on the property, across pages.
func (c *Client) ListMeters(ctx context.Context, propertyID string) ([]string, error) {
	req := &Request{Path: "/property/" + propertyID + "/meter/list", Mock: "meterList"}
	links, err := Collect(ctx, c, req, decodeLinkList)
	if err != nil {
		return nil, err
	}
	return linkIDs(links), nil
}

// PostConsumption uploads one batch of readings.
func (c *Client) PostConsumption(ctx context.Context, meterID string, data *MeterData) error {
	req := &Request{Method: http.MethodPost, Path: "/meter/" + meterID + "/consumptionData", Body: data, Mock: "ok"}
	return c.Call(ctx, req, nil)
}

// DeleteConsumption removes all consumption data of the meter.
func (c *Client) DeleteConsumption(ctx context.Context, meterID string) error {
	req := &Request{Method: http.MethodDelete, Path: "/meter/" + meterID + "/consumptionData", Mock: "ok"}
	return c.Call(ctx, req, nil)
}

// GetConsumption collects the readings of the meter between from and to, inclusive.
func (c *Client) GetConsumption(ctx context.Context, meterID string, from, to time.Time) (*MeterData, error) {
	query := url.Values{}
	query.Set("startDate", from.Format(DateLayout))
	query.Set("endDate", to.Format(DateLayout))
	req := &Request{Path: "/meter/" + meterID + "/consumptionData", Query: query, Mock: "consumptionData"}

	type entry struct {
		consumption *MeterConsumption
		delivery    *MeterDelivery
	}
	entries, err := Collect(ctx, c, req, func(data []byte) ([]entry, *Links, error) {
		var page MeterData
		if err := xml.Unmarshal(data, &page); err != nil {
			return nil, nil, &ParseError{Err: err}
		}
		var items []entry
		for i := range page.Consumption {
			items = append(items, entry{consumption: &page.Consumption[i]})
		}
		for i := range page.Delivery {
			items = append(items, entry{delivery: &page.Delivery[i]})
		}
		return items, page.Links, nil
	})
	if err != nil {
		return nil, err
	}
	result := &MeterData{}
	for _, e := range entries {
		if e.consumption != nil {
			result.Consumption = append(result.Consumption, *e.consumption)
		} else {
			result.Delivery = append(result.Delivery, *e.delivery)
		}
	}
	return result, nil
}

func (c *Client) AssociateMeters(ctx context.Context, propertyID string, list *MeterAssociationList) error {
	req := &Request{Method: http.MethodPost, Path: "/association/property/" + propertyID + "/meter", Body: list, Mock: "ok"}
	return c.Call(ctx, req, nil)
}

func (c *Client) GetProperty(ctx context.Context, propertyID string) (*Property, error) {
	var property Property
	req := &Request{Path: "/property/" + propertyID, Mock: "property"}
	if err := c.Call(ctx, req, &property); err != nil {
		return nil, err
	}
	return &property, nil
}

func (c *Client) CreateProperty(ctx context.Context, accountID string, property *Property) (string, error) {
	var resp Response
	req := &Request{Method: http.MethodPost, Path: "/account/" + accountID + "/property", Body: property, Mock: "created"}
	if err := c.Call(ctx, req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create property for account %s: no id in response", accountID)
	}
	return resp.ID, nil
}

func (c *Client) UpdateProperty(ctx context.Context, propertyID string, property *Property) error {
	req := &Request{Method: http.MethodPut, Path: "/property/" + propertyID, Body: property, Mock: "ok"}
	return c.Call(ctx, req, nil)
}

// ListProperties returns the ids of the properties the account shares with us.
func (c *Client) ListProperties(ctx context.Context, accountID string) ([]string, error) {
	req := &Request{Path: "/account/" + accountID + "/property/list", Mock: "propertyList"}
	links, err := Collect(ctx, c, req, decodeLinkList)
	if err != nil {
		return nil, err
	}
	return linkIDs(links), nil
}

// ListPropertyUses returns the names of the uses already defined on the property.
func (c *Client) ListPropertyUses(ctx context.Context, propertyID string) ([]string, error) {
	req := &Request{Path: "/property/" + propertyID + "/propertyUse/list", Mock: "propertyUseList"}
	links, err := Collect(ctx, c, req, decodeLinkList)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(links))
	for _, link := range links {
		names = append(names, link.Hint)
	}
	return names, nil
}

func (c *Client) CreatePropertyUse(ctx context.Context, propertyID string, use *Element) (string, error) {
	var resp Response
	req := &Request{Method: http.MethodPost, Path: "/property/" + propertyID + "/propertyUse", Body: use, Mock: "created"}
	if err := c.Call(ctx, req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) CreateIdentifier(ctx context.Context, propertyID string, identifier *AdditionalIdentifier) (string, error) {
	var resp Response
	req := &Request{Method: http.MethodPost, Path: "/property/" + propertyID + "/identifier", Body: identifier, Mock: "created"}
	if err := c.Call(ctx, req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) UpdateIdentifier(ctx context.Context, propertyID, identifierID string, identifier *AdditionalIdentifier) error {
	req := &Request{Method: http.MethodPut, Path: "/property/" + propertyID + "/identifier/" + identifierID, Body: identifier, Mock: "ok"}
	return c.Call(ctx, req, nil)
}

// Score returns the December ENERGY STAR score of the year, or nil when there is none.
func (c *Client) Score(ctx context.Context, propertyID string, year int) (*float64, error) {
	query := url.Values{}
	query.Set("year", strconv.Itoa(year))
	query.Set("month", "12")
	query.Set("measurementSystem", "EPA")
	req := &Request{
		Path:    "/property/" + propertyID + "/metrics",
		Query:   query,
		Headers: map[string]string{"PM-Metrics": "score"},
		Mock:    "metrics",
	}
	var metrics PropertyMetrics
	if err := c.Call(ctx, req, &metrics); err != nil {
		return nil, err
	}
	for _, metric := range metrics.Metrics {
		if metric.Name != "score" {
			continue
		}
		value, err := strconv.ParseFloat(metric.Value, 64)
		if err != nil {
			return nil, nil
		}
		return &value, nil
	}
	return nil, nil
}

func (c *Client) ReasonsForNoScore(ctx context.Context, propertyID string, year int) ([]Alert, error) {
	query := url.Values{}
	query.Set("year", strconv.Itoa(year))
	query.Set("month", "12")
	req := &Request{Path: "/property/" + propertyID + "/reasonsForNoScore", Query: query, Mock: "reasonsForNoScore"}
	var alerts Alerts
	if err := c.Call(ctx, req, &alerts); err != nil {
		return nil, err
	}
	return alerts.Alerts, nil
}

// GetCustomer returns the username and e-mail of a connected account.
func (c *Client) GetCustomer(ctx context.Context, accountID string) (username, email string, err error) {
	obj, err := c.Request(ctx, &Request{Path: "/customer/" + accountID, Mock: "customer"})
	if err != nil {
		return "", "", err
	}
	return obj.String("customer", "username"), obj.String("customer", "accountInfo", "email"), nil
}

func (c *Client) pending(ctx context.Context, path, mock string) (*PendingList, error) {
	req := &Request{Path: path, Mock: mock}
	type item struct {
		account  *PendingAccount
		property *PendingProperty
		meter    *PendingMeter
	}
	items, err := Collect(ctx, c, req, func(data []byte) ([]item, *Links, error) {
		var page PendingList
		if err := xml.Unmarshal(data, &page); err != nil {
			return nil, nil, &ParseError{Err: err}
		}
		var list []item
		for i := range page.Accounts {
			list = append(list, item{account: &page.Accounts[i]})
		}
		for i := range page.Properties {
			list = append(list, item{property: &page.Properties[i]})
		}
		for i := range page.Meters {
			list = append(list, item{meter: &page.Meters[i]})
		}
		return list, page.Links, nil
	})
	if err != nil {
		return nil, err
	}
	result := &PendingList{}
	for _, it := range items {
		switch {
		case it.account != nil:
			result.Accounts = append(result.Accounts, *it.account)
		case it.property != nil:
			result.Properties = append(result.Properties, *it.property)
		case it.meter != nil:
			result.Meters = append(result.Meters, *it.meter)
		}
	}
	return result, nil
}

func (c *Client) PendingConnections(ctx context.Context) ([]PendingAccount, error) {
	list, err := c.pending(ctx, "/connect/account/pending/list", "pendingAccounts")
	if err != nil {
		return nil, err
	}
	return list.Accounts, nil
}

func (c *Client) PendingPropertyShares(ctx context.Context) ([]PendingProperty, error) {
	list, err := c.pending(ctx, "/share/property/pending/list", "pendingProperties")
	if err != nil {
		return nil, err
	}
	return list.Properties, nil
}

func (c *Client) PendingMeterShares(ctx context.Context) ([]PendingMeter, error) {
	list, err := c.pending(ctx, "/share/meter/pending/list", "pendingMeters")
	if err != nil {
		return nil, err
	}
	return list.Meters, nil
}

func (c *Client) AcceptConnection(ctx context.Context, accountID string) error {
	return c.accept(ctx, "/connect/account/"+accountID)
}

func (c *Client) AcceptPropertyShare(ctx context.Context, propertyID string) error {
	return c.accept(ctx, "/share/property/"+propertyID)
}

func (c *Client) AcceptMeterShare(ctx context.Context, meterID string) error {
	return c.accept(ctx, "/share/meter/"+meterID)
}

func (c *Client) accept(ctx context.Context, path string) error {
	body := &SharingResponse{Action: "Accept", Note: "Accepted by building sync"}
	return c.Call(ctx, &Request{Method: http.MethodPost, Path: path, Body: body, Mock: "ok"}, nil)
}

func linkIDs(links []Link) []string {
	ids := make([]string, 0, len(links))
	for _, link := range links {
		if link.ID != "" {
			ids = append(ids, link.ID)
		}
	}
	return ids
}
