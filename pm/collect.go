package pm

import (
	"context"
	"encoding/xml"
	"net/http"
)

const nextPage = "next page"

type Link struct {
	ID          string `xml:"id,attr,omitempty"`
	Hint        string `xml:"hint,attr,omitempty"`
	Href        string `xml:"link,attr"`
	HTTPMethod  string `xml:"httpMethod,attr,omitempty"`
	Description string `xml:"linkDescription,attr,omitempty"`
}

type Links struct {
	Link []Link `xml:"link"`
}

// Next returns the "next page" link, if any.
func (l *Links) Next() (Link, bool) {
	if l == nil {
		return Link{}, false
	}
	for _, link := range l.Link {
		if link.Description == nextPage {
			return link, true
		}
	}
	return Link{}, false
}

// Items returns the links that point at resources rather than at other pages.
func (l *Links) Items() []Link {
	if l == nil {
		return nil
	}
	items := make([]Link, 0, len(l.Link))
	for _, link := range l.Link {
		if link.Description == nextPage {
			continue
		}
		items = append(items, link)
	}
	return items
}

// PageDecoder extracts the items and pagination links from one response body.
type PageDecoder[T any] func(data []byte) ([]T, *Links, error)

// Collect follows "next page" links starting at req and accumulates every page's
// items. A (url, method) pair is fetched at most once.
func Collect[T any](ctx context.Context, c *Client, req *Request, decode PageDecoder[T]) ([]T, error) {
	items := make([]T, 0)
	visited := make(map[string]bool)
	next := req
	for next != nil {
		key := next.method() + " " + next.target()
		if visited[key] {
			break
		}
		visited[key] = true

		data, err := c.raw(ctx, next)
		if err != nil {
			return nil, err
		}
		pageItems, links, err := decode(data)
		if err != nil {
			return nil, err
		}
		items = append(items, pageItems...)

		next = nil
		if link, ok := links.Next(); ok {
			method := link.HTTPMethod
			if method == "" {
				method = http.MethodGet
			}
			next = &Request{Method: method, Path: link.Href, Headers: req.Headers}
			if req.Mock != "" {
				next.Mock = link.Href
			}
		}
	}
	return items, nil
}

// linkList is the usual list response: the items are the links themselves.
type linkList struct {
	XMLName xml.Name
	Links   *Links `xml:"links"`
}

func decodeLinkList(data []byte) ([]Link, *Links, error) {
	var list linkList
	if err := xml.Unmarshal(data, &list); err != nil {
		return nil, nil, &ParseError{Err: err}
	}
	return list.Links.Items(), list.Links, nil
}
