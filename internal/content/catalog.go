package content

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// FilterAll selects every testimonial.
const FilterAll = "All"

//go:embed catalog.yaml
var defaultCatalog []byte

// Company holds the business identity shown across the site.
type Company struct {
	Name            string `yaml:"name" json:"name"`
	ShortName       string `yaml:"short_name" json:"short_name"`
	PhoneDisplay    string `yaml:"phone_display" json:"phone_display"`
	PhoneDial       string `yaml:"phone_dial" json:"phone_dial"`
	Email           string `yaml:"email" json:"email"`
	ServiceArea     string `yaml:"service_area" json:"service_area"`
	ServiceAreaNote string `yaml:"service_area_note" json:"service_area_note"`
	ResponsePromise string `yaml:"response_promise" json:"response_promise"`
}

type NavLink struct {
	Label string `yaml:"label" json:"label"`
	Href  string `yaml:"href" json:"href"`
}

// Service is one line of business with its own detail page.
type Service struct {
	ID          string   `yaml:"id" json:"id"`
	Slug        string   `yaml:"slug" json:"slug"`
	Title       string   `yaml:"title" json:"title"`
	ShortDesc   string   `yaml:"short_desc" json:"short_desc"`
	Description string   `yaml:"description" json:"description"`
	Icon        Icon     `yaml:"icon" json:"icon"`
	Features    []string `yaml:"features" json:"features"`
}

type Testimonial struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Location string `yaml:"location" json:"location"`
	Rating   int    `yaml:"rating" json:"rating"`
	Text     string `yaml:"text" json:"text"`
	Service  string `yaml:"service" json:"service"`
	Date     string `yaml:"date" json:"date"`
}

type RatingPlatform struct {
	Name   string `yaml:"name" json:"name"`
	Rating string `yaml:"rating" json:"rating"`
	Count  string `yaml:"count" json:"count"`
}

type Certification struct {
	Name   string `yaml:"name" json:"name"`
	Detail string `yaml:"detail" json:"detail"`
}

type Milestone struct {
	Year  string `yaml:"year" json:"year"`
	Title string `yaml:"title" json:"title"`
	Desc  string `yaml:"desc" json:"desc"`
}

type TeamMember struct {
	Name   string `yaml:"name" json:"name"`
	Title  string `yaml:"title" json:"title"`
	Tenure string `yaml:"tenure" json:"tenure"`
}

// Option is a value/label pair rendered in a select control.
type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

type Hours struct {
	Days  string `yaml:"days" json:"days"`
	Hours string `yaml:"hours" json:"hours"`
}

type Promise struct {
	Title string `yaml:"title" json:"title"`
	Desc  string `yaml:"desc" json:"desc"`
}

// Catalog is the read-only site content. It is loaded once at startup and
// shared by handlers and form schemas.
type Catalog struct {
	Company           Company          `yaml:"company"`
	NavLinks          []NavLink        `yaml:"nav_links"`
	Services          []Service        `yaml:"services"`
	Testimonials      []Testimonial    `yaml:"testimonials"`
	ReviewFilters     []string         `yaml:"review_filters"`
	RatingPlatforms   []RatingPlatform `yaml:"rating_platforms"`
	Certifications    []Certification  `yaml:"certifications"`
	Milestones        []Milestone      `yaml:"milestones"`
	Team              []TeamMember     `yaml:"team"`
	ServiceTypes      []string         `yaml:"service_types"`
	UrgencyOptions    []Option         `yaml:"urgency_options"`
	TimeSlots         []string         `yaml:"time_slots"`
	ContactSubjects   []string         `yaml:"contact_subjects"`
	BusinessHours     []Hours          `yaml:"business_hours"`
	EmergencyPromises []Promise        `yaml:"emergency_promises"`
}

// Default parses the embedded catalogue.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// MustDefault is Default for program start and tests; it panics on a broken catalogue.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes a YAML catalogue and checks it for consistency.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("content: parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Services) == 0 {
		return fmt.Errorf("%w: no services", ErrInvalidCatalog)
	}
	slugs := make(map[string]struct{}, len(c.Services))
	for _, s := range c.Services {
		if s.Slug == "" {
			return fmt.Errorf("%w: service %q has no slug", ErrInvalidCatalog, s.ID)
		}
		if _, dup := slugs[s.Slug]; dup {
			return fmt.Errorf("%w: duplicate service slug %q", ErrInvalidCatalog, s.Slug)
		}
		slugs[s.Slug] = struct{}{}
		if s.Icon == 0 {
			return fmt.Errorf("%w: service %q has no icon", ErrInvalidCatalog, s.ID)
		}
	}
	for _, t := range c.Testimonials {
		if t.Rating < 1 || t.Rating > 5 {
			return fmt.Errorf("%w: testimonial %q rating %d out of range", ErrInvalidCatalog, t.ID, t.Rating)
		}
	}
	if len(c.ServiceTypes) == 0 {
		return fmt.Errorf("%w: no service types", ErrInvalidCatalog)
	}
	if len(c.TimeSlots) == 0 {
		return fmt.Errorf("%w: no time slots", ErrInvalidCatalog)
	}
	if len(c.ContactSubjects) == 0 {
		return fmt.Errorf("%w: no contact subjects", ErrInvalidCatalog)
	}
	return nil
}

// ServiceBySlug returns the service for slug, falling back to the first
// service when the slug is empty or unknown.
func (c *Catalog) ServiceBySlug(slug string) Service {
	if s, err := c.LookupService(slug); err == nil {
		return s
	}
	return c.Services[0]
}

// LookupService is the strict form of ServiceBySlug.
func (c *Catalog) LookupService(slug string) (Service, error) {
	slug = strings.TrimSpace(slug)
	for _, s := range c.Services {
		if s.Slug == slug {
			return s, nil
		}
	}
	return Service{}, fmt.Errorf("%w: %q", ErrServiceNotFound, slug)
}

// FilterTestimonials returns the testimonials for a review filter. "All" and
// the empty string select everything; any other value must match exactly.
func (c *Catalog) FilterTestimonials(filter string) []Testimonial {
	filter = strings.TrimSpace(filter)
	if filter == "" || filter == FilterAll {
		return slices.Clone(c.Testimonials)
	}
	out := make([]Testimonial, 0, len(c.Testimonials))
	for _, t := range c.Testimonials {
		if t.Service == filter {
			out = append(out, t)
		}
	}
	return out
}

// UrgencyLabel returns the display label for an urgency value, or the value itself.
func (c *Catalog) UrgencyLabel(v string) string {
	for _, o := range c.UrgencyOptions {
		if o.Value == v {
			return o.Label
		}
	}
	return v
}

// TelHref is the tel: link for the company phone.
func (c *Catalog) TelHref() string {
	return "tel:" + c.Company.PhoneDial
}
