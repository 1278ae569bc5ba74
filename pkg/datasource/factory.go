package datasource

import (
	"fmt"
	"time"
)

// Options selects and configures a provider.
type Options struct {
	Provider          string
	CSVPath           string
	XLSXPath          string
	CompanyAPIBaseURL string
	CompanyAPIToken   string
	CompanyAPITimeout time.Duration
}

// New builds the provider named by opts.Provider.
func New(opts Options) (GridDataProvider, error) {
	switch opts.Provider {
	case ProviderCSV:
		return NewCSVProvider(opts.CSVPath), nil
	case ProviderXLSX:
		return NewXLSXProvider(opts.XLSXPath), nil
	case ProviderCompanyAPI:
		return NewCompanyAPIProvider(opts.CompanyAPIBaseURL, opts.CompanyAPIToken, opts.CompanyAPITimeout), nil
	default:
		return nil, fmt.Errorf("%w: use 'csv', 'xlsx' or 'company_api', received %q", ErrUnsupportedProvider, opts.Provider)
	}
}
