package mtc

// Wire envelopes for the OutSystems screenservices protocol. Field
// names and casing follow the application's own traffic exactly.

type versionInfo struct {
	ModuleVersion string `json:"moduleVersion"`
	APIVersion    string `json:"apiVersion"`
}

type moduleVersionResponse struct {
	VersionToken string `json:"versionToken"`
}

type appStoreURLsRequest struct {
	VersionInfo     versionInfo `json:"versionInfo"`
	ViewName        string      `json:"viewName"`
	InputParameters struct{}    `json:"inputParameters"`
}

type loginRequest struct {
	VersionInfo     versionInfo `json:"versionInfo"`
	ViewName        string      `json:"viewName"`
	InputParameters loginParams `json:"inputParameters"`
}

type loginParams struct {
	Username       string `json:"Username"`
	Password       string `json:"Password"`
	KeepMeLoggedIn bool   `json:"KeepMeLoggedIn"`
}

type loginResponse struct {
	Data struct {
		Result        bool `json:"Result"`
		ErrorMessages struct {
			List []struct {
				MessageText string `json:"MessageText"`
			} `json:"List"`
		} `json:"ErrorMessages"`
	} `json:"data"`
}

type transactionsRequest struct {
	VersionInfo versionInfo `json:"versionInfo"`
	ViewName    string      `json:"viewName"`
	ScreenData  screenData  `json:"screenData"`
}

type screenData struct {
	Variables transactionsVariables `json:"variables"`
}

// transactionsVariables mirrors the screen state the transactions
// overview posts, including the `_...InDataFetchStatus` markers the
// server expects alongside each filter.
type transactionsVariables struct {
	ShowSharePopup                 bool        `json:"ShowSharePopup"`
	InputParameterString           string      `json:"InputParameterString"`
	MaxRecords                     int         `json:"MaxRecords"`
	IsFirstLoad                    bool        `json:"IsFirstLoad"`
	IsLoadMore                     bool        `json:"IsLoadMore"`
	PopupValues                    popupValues `json:"PopupValues"`
	IsShowNoClaimsPopup            bool        `json:"IsShowNoClaimsPopup"`
	TransactionTypeIDCurrentFilter string      `json:"TransactionTypeIdCurrentFilter"`
	TransactionTypeIDFetchStatus   int         `json:"_transactionTypeIdCurrentFilterInDataFetchStatus"`
	StartDateTimeCurrentFilter     string      `json:"StartDateTimeCurrentFilter"`
	StartDateTimeFetchStatus       int         `json:"_startDateTimeCurrentFilterInDataFetchStatus"`
	EndDateTimeCurrentFilter       string      `json:"EndDateTimeCurrentFilter"`
	EndDateTimeFetchStatus         int         `json:"_endDateTimeCurrentFilterInDataFetchStatus"`
	ForceRefreshList               int         `json:"ForceRefreshList"`
	ForceRefreshListFetchStatus    int         `json:"_forceRefreshListInDataFetchStatus"`
}

type popupValues struct {
	IconClassName                string `json:"IconClassName"`
	Title                        string `json:"Title"`
	Content                      string `json:"Content"`
	ButtonText                   string `json:"ButtonText"`
	ButtonEventPayload           string `json:"ButtonEventPayload"`
	AlternativeLinkText          string `json:"AlternativeLinkText"`
	AlternativeLinkPayload       string `json:"AlternativeLinkPayload"`
	SecondAlternativeText        string `json:"SecondAlternativeText"`
	SecondAlternativeLinkPayload string `json:"SecondAlternativeLinkPayload"`
}

type transactionsResponse struct {
	Exception *struct {
		Message string `json:"message"`
	} `json:"exception"`
	Data struct {
		Transactions struct {
			List []transaction `json:"List"`
		} `json:"Transactions"`
	} `json:"data"`
}

// transaction is one entry in the transactions overview. ClaimNote is
// the free-text note a submitted claim's description ends up in; it is
// the sole duplicate-detection key.
type transaction struct {
	ClaimNote string `json:"ClaimNote"`
}

type claimRequest struct {
	VersionInfo     versionInfo `json:"versionInfo"`
	ViewName        string      `json:"viewName"`
	InputParameters claimParams `json:"inputParameters"`
}

type claimParams struct {
	ClaimNew   claimNew        `json:"ClaimNew"`
	Attachment claimAttachment `json:"Attachment"`
}

type claimNew struct {
	TransactionTypeID string `json:"TransactionTypeId"`
	Iban              string `json:"Iban"`
	Amount            string `json:"Amount"`
	DateTransaction   string `json:"DateTransaction"`
	Mileage           int    `json:"Mileage"`
	IsForeign         bool   `json:"IsForeign"`
	CountryID         string `json:"CountryId"`
	IsReplacement     bool   `json:"IsReplacement"`
	Quantity          string `json:"Quantity"`
	Description       string `json:"Description"`
	ProductCode       string `json:"ProductCode"`
}

type claimAttachment struct {
	MimeType string `json:"MimeType"`
	Binary   string `json:"Binary"`
}

type claimResponse struct {
	Data struct {
		Success      bool   `json:"Success"`
		ErrorMessage string `json:"ErrorMessage"`
	} `json:"data"`
}
