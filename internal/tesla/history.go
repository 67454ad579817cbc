package tesla

// GraphQL envelope and the slice of the charging history schema this
// client actually consumes.

type graphqlRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

type historyResponse struct {
	Data struct {
		Me struct {
			Charging struct {
				HistoryV2 chargingHistory `json:"historyV2"`
			} `json:"charging"`
		} `json:"me"`
	} `json:"data"`
}

type chargingHistory struct {
	Data         []historyEntry `json:"data"`
	TotalResults int            `json:"totalResults"`
	HasMoreData  bool           `json:"hasMoreData"`
	PageNumber   int            `json:"pageNumber"`
}

type historyEntry struct {
	ChargeSessionID     string    `json:"chargeSessionId"`
	SiteLocationName    string    `json:"siteLocationName"`
	ChargeStartDateTime string    `json:"chargeStartDateTime"`
	ChargeStopDateTime  string    `json:"chargeStopDateTime"`
	CountryCode         string    `json:"countryCode"`
	VIN                 string    `json:"vin"`
	Fees                []fee     `json:"fees"`
	Invoices            []invoice `json:"invoices"`
}

type fee struct {
	FeeType      string  `json:"feeType"`
	UsageBase    float64 `json:"usageBase"`
	TotalDue     float64 `json:"totalDue"`
	CurrencyCode string  `json:"currencyCode"`
	IsPaid       bool    `json:"isPaid"`
	UOM          string  `json:"uom"`
}

type invoice struct {
	FileName    string `json:"fileName"`
	ContentID   string `json:"contentId"`
	InvoiceType string `json:"invoiceType"`
}

// chargingHistoryQuery requests the fields above plus enough context
// for future use; the app sends the full selection, so matching it
// keeps the request indistinguishable from mobile traffic.
const chargingHistoryQuery = `query getChargingHistoryV2($pageNumber: Int!, $sortBy: String, $sortOrder: SortByEnum, $latestSession: Boolean) {
  me {
    charging {
      historyV2(
        pageNumber: $pageNumber
        sortBy: $sortBy
        sortOrder: $sortOrder
        latestSession: $latestSession
      ) {
        data {
          countryCode
          vin
          invoices {
            fileName
            contentId
            invoiceType
          }
          chargeSessionId
          siteLocationName
          chargeStartDateTime
          chargeStopDateTime
          fees {
            sessionFeeId
            feeType
            currencyCode
            pricingType
            usageBase
            rateBase
            uom
            isPaid
            totalBase
            totalDue
            netDue
            status
          }
          sessionId
          sessionSource
        }
        totalResults
        hasMoreData
        pageNumber
      }
    }
  }
}`
