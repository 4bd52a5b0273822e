package pm

import "encoding/xml"

// Response is the generic acknowledgement returned by create, update and delete calls.
type Response struct {
	XMLName xml.Name `xml:"response"`
	Status  string   `xml:"status,attr"`
	ID      string   `xml:"id"`
	Links   *Links   `xml:"links"`
}

type Meter struct {
	XMLName       xml.Name `xml:"meter"`
	ID            string   `xml:"id,omitempty"`
	Type          string   `xml:"type"`
	Name          string   `xml:"name"`
	UnitOfMeasure string   `xml:"unitOfMeasure"`
	Metered       bool     `xml:"metered"`
	FirstBillDate string   `xml:"firstBillDate"`
	InUse         bool     `xml:"inUse"`
	InactiveDate  string   `xml:"inactiveDate,omitempty"`
}

type MeterData struct {
	XMLName     xml.Name           `xml:"meterData"`
	Consumption []MeterConsumption `xml:"meterConsumption"`
	Delivery    []MeterDelivery    `xml:"meterDelivery"`
	Links       *Links             `xml:"links,omitempty"`
}

type MeterConsumption struct {
	ID             string          `xml:"id,attr,omitempty"`
	Estimated      bool            `xml:"estimatedValue,attr"`
	Cost           *Decimal        `xml:"cost,omitempty"`
	StartDate      string          `xml:"startDate"`
	EndDate        string          `xml:"endDate"`
	Usage          Decimal         `xml:"usage"`
	DemandTracking *DemandTracking `xml:"demandTracking,omitempty"`
}

type DemandTracking struct {
	Demand     *Decimal `xml:"demand,omitempty"`
	DemandCost *Decimal `xml:"demandCost,omitempty"`
}

type MeterDelivery struct {
	ID           string   `xml:"id,attr,omitempty"`
	Estimated    bool     `xml:"estimatedValue,attr"`
	Cost         *Decimal `xml:"cost,omitempty"`
	DeliveryDate string   `xml:"deliveryDate"`
	Quantity     Decimal  `xml:"quantity"`
}

type MeterAssociationList struct {
	XMLName xml.Name          `xml:"meterPropertyAssociationList"`
	Energy  *MeterAssociation `xml:"energyMeterAssociation,omitempty"`
	Water   *MeterAssociation `xml:"waterMeterAssociation,omitempty"`
}

type MeterAssociation struct {
	MeterIDs               []string               `xml:"meters>meterId"`
	PropertyRepresentation PropertyRepresentation `xml:"propertyRepresentation"`
}

type PropertyRepresentation struct {
	Type string `xml:"propertyRepresentationType"`
}

type Property struct {
	XMLName             xml.Name       `xml:"property"`
	Name                string         `xml:"name"`
	PrimaryFunction     string         `xml:"primaryFunction"`
	Address             Address        `xml:"address"`
	YearBuilt           int            `xml:"yearBuilt"`
	ConstructionStatus  string         `xml:"constructionStatus"`
	GrossFloorArea      GrossFloorArea `xml:"grossFloorArea"`
	OccupancyPercentage int            `xml:"occupancyPercentage"`
	IsFederalProperty   bool           `xml:"isFederalProperty"`
}

type Address struct {
	Address1   string `xml:"address1,attr"`
	City       string `xml:"city,attr"`
	State      string `xml:"state,attr,omitempty"`
	PostalCode string `xml:"postalCode,attr"`
	Country    string `xml:"country,attr"`
}

type GrossFloorArea struct {
	Units     string  `xml:"units,attr"`
	Temporary bool    `xml:"temporary,attr"`
	Value     Decimal `xml:"value"`
}

type AdditionalIdentifier struct {
	XMLName     xml.Name       `xml:"additionalIdentifier"`
	Type        IdentifierType `xml:"additionalIdentifierType"`
	Description string         `xml:"description"`
	Value       string         `xml:"value"`
}

type IdentifierType struct {
	ID string `xml:"id,attr"`
}

type PropertyMetrics struct {
	XMLName    xml.Name `xml:"propertyMetrics"`
	PropertyID string   `xml:"propertyId,attr"`
	Year       int      `xml:"year,attr"`
	Month      int      `xml:"month,attr"`
	Metrics    []Metric `xml:"metric"`
}

type Metric struct {
	Name     string `xml:"name,attr"`
	DataType string `xml:"dataType,attr"`
	Value    string `xml:"value"`
}

type Alerts struct {
	XMLName xml.Name `xml:"alerts"`
	Alerts  []Alert  `xml:"alert"`
}

type Alert struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
}

type SharingResponse struct {
	XMLName xml.Name `xml:"sharingResponse"`
	Action  string   `xml:"action"`
	Note    string   `xml:"note,omitempty"`
}

type PendingList struct {
	XMLName    xml.Name          `xml:"pendingList"`
	Accounts   []PendingAccount  `xml:"account"`
	Properties []PendingProperty `xml:"property"`
	Meters     []PendingMeter    `xml:"meter"`
	Links      *Links            `xml:"links"`
}

type PendingAccount struct {
	AccountID string `xml:"accountId"`
	Username  string `xml:"username"`
}

type PendingProperty struct {
	PropertyID string `xml:"propertyId"`
	AccountID  string `xml:"accountId"`
}

type PendingMeter struct {
	MeterID    string `xml:"meterId"`
	PropertyID string `xml:"propertyId"`
	AccountID  string `xml:"accountId"`
}
