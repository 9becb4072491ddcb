// Package record defines the JSON data contracts for a financial record
// extracted from a CIM, along with decoding and copying helpers.
//
// Monetary values are in thousands of dollars. Nullable numbers are modelled
// as *float64 and arrays as Series so that JSON null survives a round trip.
// Code that edits a record replaces pointers rather than writing through
// them, which lets Clone share scalar pointers between copies.
package record

// Series is a nullable numeric array (one element per period).
type Series []*float64

// Labels is a nullable string array of period labels.
type Labels []*string

// Record is the unit of work: one per source document.
type Record struct {
	CompanyName     *string `json:"company_name"`
	Industry        *string `json:"industry"`
	Geography       *string `json:"geography"`
	TransactionDate *string `json:"transaction_date"`

	HistoricalYears Labels `json:"historical_years"`
	ProjectionYears Labels `json:"projection_years"`

	Financials  Financials   `json:"financials"`
	Collateral  Collateral   `json:"collateral"`
	Deal        Deal         `json:"deal"`
	Rates       Rates        `json:"rates"`
	Fees        *Fees        `json:"fees,omitempty"`
	Qualitative *Qualitative `json:"qualitative,omitempty"`
	Confidence  *Confidence  `json:"confidence,omitempty"`

	FieldSources FieldSources `json:"field_sources"`
	Corrections  []string     `json:"_corrections_applied"`
	Derivations  []string     `json:"_derivations_applied"`
	Warnings     []string     `json:"warnings,omitempty"`
}

// Financials holds the historical (oldest to newest) and projected P&L and
// cash flow lines.
type Financials struct {
	NetRevenueHist    Series `json:"net_revenue_hist"`
	GrossProfitHist   Series `json:"gross_profit_hist"`
	SGAHist           Series `json:"sga_hist"`
	AdjustmentsHist   Series `json:"adjustments_hist"`
	AdjEBITDAHist     Series `json:"adj_ebitda_hist"`
	OtherIncomeHist   Series `json:"other_income_hist"`
	DepreciationHist  Series `json:"depreciation_hist"`
	CapexHist         Series `json:"capex_hist"`
	EBITDAMarginHist  Series `json:"ebitda_margin_hist"`
	GMPctHist         Series `json:"gm_pct_hist"`
	RevenueGrowthHist Series `json:"revenue_growth_hist"`

	NetRevenueProj   Series `json:"net_revenue_proj"`
	GrossProfitProj  Series `json:"gross_profit_proj"`
	SGAProj          Series `json:"sga_proj"`
	AdjustmentsProj  Series `json:"adjustments_proj"`
	AdjEBITDAProj    Series `json:"adj_ebitda_proj"`
	DepreciationProj Series `json:"depreciation_proj"`
	CapexProj        Series `json:"capex_proj"`
	MgmtFeesProj     Series `json:"mgmt_fees_proj"`
	EBITDAMarginProj Series `json:"ebitda_margin_proj"`
	GMPctProj        Series `json:"gm_pct_proj"`
}

// Deal holds the transaction scalars.
type Deal struct {
	EBITDAForPrice          *float64 `json:"ebitda_for_price"`
	EntryMultiple           *float64 `json:"entry_multiple"`
	PctAcquired             *float64 `json:"pct_acquired"`
	PurchasePriceCalculated *float64 `json:"purchase_price_calculated"`
	EnterpriseValue         *float64 `json:"enterprise_value"`
	ExitMultiple            *float64 `json:"exit_multiple"`
	TermLoanAmount          *float64 `json:"term_loan_amount"`
	SellerNoteAmount        *float64 `json:"seller_note_amount"`
	EarnoutAmount           *float64 `json:"earnout_amount"`
	EquityRollover          *float64 `json:"equity_rollover"`
	RevenueLTM              *float64 `json:"revenue_ltm"`
	EBITDALTM               *float64 `json:"ebitda_ltm"`
	LeverageRatio           *float64 `json:"leverage_ratio"`
}

// Collateral holds the balance sheet values that back the ABL facility.
type Collateral struct {
	ARValue                   *float64 `json:"ar_value"`
	ARAdvanceRate             *float64 `json:"ar_advance_rate"`
	InventoryValue            *float64 `json:"inventory_value"`
	InventoryAdvanceRate      *float64 `json:"inventory_advance_rate"`
	EquipmentValue            *float64 `json:"equipment_value"`
	EquipmentAdvanceRate      *float64 `json:"equipment_advance_rate"`
	BuildingLandValue         *float64 `json:"building_land_value"`
	BuildingAdvanceRate       *float64 `json:"building_advance_rate"`
	ABLAvailabilityCalculated *float64 `json:"abl_availability_calculated"`
}

// Rates holds financing rates and amortization terms.
type Rates struct {
	ABLRate              *float64 `json:"abl_rate"`
	TermRate             *float64 `json:"term_rate"`
	SellerNoteRate       *float64 `json:"seller_note_rate"`
	TaxRate              *float64 `json:"tax_rate"`
	TermAmortYears       *float64 `json:"term_amort_years"`
	SellerNoteAmortYears *float64 `json:"seller_note_amort_years"`
}

// Fees holds transaction fee assumptions.
type Fees struct {
	ABLFeeRate  *float64 `json:"abl_fee_rate"`
	TermFeeRate *float64 `json:"term_fee_rate"`
	LegalFees   *float64 `json:"legal_fees"`
	QofeFees    *float64 `json:"qofe_fees"`
	TaxFees     *float64 `json:"tax_fees"`
	RWInsurance *float64 `json:"rw_insurance"`
	BonusSenior *float64 `json:"bonus_senior"`
	BonusJunior *float64 `json:"bonus_junior"`
}

// Qualitative holds the narrative extraction.
type Qualitative struct {
	KeyHighlights  []string `json:"key_highlights"`
	Risks          []string `json:"risks"`
	CompanySummary *string  `json:"company_summary"`
}

// Confidence holds the extractor's self-reported confidence scores (0-100).
type Confidence struct {
	DealOverview     *float64          `json:"deal_overview_confidence"`
	FinancialSummary *float64          `json:"financial_summary_confidence"`
	DealMetrics      *float64          `json:"deal_metrics_confidence"`
	Collateral       *float64          `json:"collateral_confidence"`
	Projections      *float64          `json:"projections_confidence"`
	Overall          *float64          `json:"overall_confidence"`
	FieldLevel       map[string]string `json:"field_level,omitempty"`
}

// At returns the element at i, or nil when i is out of range.
func (s Series) At(i int) *float64 {
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}

// Set returns s with element i replaced by v, growing s with nulls if needed.
func (s Series) Set(i int, v *float64) Series {
	for len(s) <= i {
		s = append(s, nil)
	}
	s[i] = v
	return s
}

// Count returns the number of non-null elements.
func (s Series) Count() int {
	n := 0
	for _, v := range s {
		if v != nil {
			n++
		}
	}
	return n
}

// AllNull reports whether every element is null (true for an empty series).
func (s Series) AllNull() bool {
	return s.Count() == 0
}

// Clone returns a copy of s that can be modified independently.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Clone returns a copy of l that can be modified independently.
func (l Labels) Clone() Labels {
	if l == nil {
		return nil
	}
	out := make(Labels, len(l))
	copy(out, l)
	return out
}

// NonNull returns the non-null labels in order.
func (l Labels) NonNull() []string {
	out := make([]string, 0, len(l))
	for _, v := range l {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}
