package loaders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankgreen/bankmap/internal/transport"
	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/financing"
	"github.com/bankgreen/bankmap/pkg/identifiers"
	"github.com/bankgreen/bankmap/pkg/logging"
	"github.com/bankgreen/bankmap/pkg/pipeline"
	"github.com/bankgreen/bankmap/pkg/registry"
	"github.com/bankgreen/bankmap/pkg/sources"
)

func newRegistry() *registry.Registry {
	return registry.New(registry.WithLogger(logging.NewNopLogger()))
}

func TestBanktrackCSV(t *testing.T) {
	reg := newRegistry()
	in := pipeline.Payloads{BanktrackInput: []byte(
		"title,tag,updated_at,link,country,website\n" +
			"HSBC,HSBC ,2021-03-01,https://banktrack.org/bank/hsbc,United Kingdom,https://hsbc.com\n" +
			"Ghost Bank,ghost,,,Atlantis,\n")}

	stats, err := Banktrack{}.Load(context.Background(), in, reg)
	require.NoError(t, err)

	assert.Equal(t, pipeline.Stats{Read: 2, Registered: 1, Skipped: 1}, stats)
	b, ok := reg.Get("hsbc")
	require.True(t, ok)
	assert.Equal(t, "HSBC", b.Name())
	assert.Equal(t, []string{"United Kingdom"}, b.Countries())
	_, ok = reg.Get("ghost")
	assert.False(t, ok)
}

func TestBanktrackJSON(t *testing.T) {
	reg := newRegistry()
	in := pipeline.Payloads{BanktrackInput: []byte(`{"bankprofiles":[
		{"title":"Banco Santander","tag":"santander","country":"Spain","website":"santander.com"}
	]}`)}

	stats, err := Banktrack{}.Load(context.Background(), in, reg)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Registered)
	b, ok := reg.Get("santander")
	require.True(t, ok)
	assert.Equal(t, []string{"Spain"}, b.Countries())
}

func TestMissingColumnIsParseError(t *testing.T) {
	_, err := Switchit{}.Load(context.Background(), pipeline.Payloads{SwitchitInput: []byte("name\nx\n")}, newRegistry())
	var perr *errors.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.Message, "company_name")

	_, err = Switchit{}.Load(context.Background(), pipeline.Payloads{}, newRegistry())
	assert.Error(t, err)
}

func TestBOCCBreakdown(t *testing.T) {
	reg := newRegistry()
	in := pipeline.Payloads{BOCCInput: []byte(
		"Bank,Country,Cum % of Assets Loaned since 2016,FFF - total rank,FFF - 2020,FFF - 2016-2020,CM - Rank,Europe\n" +
			"JPMorgan Chase,US,12.5%,1,\"$51,300,000,000\",\"$316,700,000,000\",n/a,\n")}

	stats, err := BOCC{}.Load(context.Background(), in, reg)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Registered)

	b, ok := reg.Get("jpmorgan_chase")
	require.True(t, ok)
	assert.Equal(t, []string{"United States"}, b.Countries())

	rec, ok := b.Record(sources.BOCCType)
	require.True(t, ok)
	bocc := rec.(*sources.BOCC)
	assert.Equal(t, 12.5, bocc.PercentAssets)
	assert.Equal(t, 1, bocc.Financing[financing.Total].Rank)
	assert.Equal(t, 0, bocc.Financing[financing.CoalMining].Rank)
	assert.Equal(t, "$51,300,000,000", bocc.Financing[financing.Total].Years[2020])
	assert.Empty(t, bocc.Regions)
}

func TestParseRank(t *testing.T) {
	tests := map[string]int{"1": 1, "12.0": 12, "": 0, "n/a": 0, "-3": 0}
	for in, want := range tests {
		assert.Equal(t, want, parseRank(in), in)
	}
}

func TestGabvCountryUnion(t *testing.T) {
	reg := newRegistry()
	in := pipeline.Payloads{GabvInput: []byte(
		"company_name,country,GABV,b-impact,website,impact_area_environment\n" +
			"Triodos Bank,Netherlands,Yes,nan,triodos.com,12.5\n" +
			"Triodos Bank,Belgium,Yes,,triodos.be,\n")}

	stats, err := Gabv{}.Load(context.Background(), in, reg)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Registered)

	b, ok := reg.Get("triodos_bank")
	require.True(t, ok)
	assert.Equal(t, []string{"Belgium", "Netherlands"}, b.Countries())

	rec, _ := b.Record(sources.GabvType)
	assert.Empty(t, rec.(*sources.Gabv).BImpact)
}

func TestFairfinanceScores(t *testing.T) {
	reg := newRegistry()
	in := pipeline.Payloads{FairfinanceInput: []byte(
		"Bank,Countries,Sweden - fairfinanceguide.se,Japan - https://fairfinance.jp/\n" +
			"Nordea,\"Sweden, Norway\",40,\n")}

	_, err := Fairfinance{}.Load(context.Background(), in, reg)
	require.NoError(t, err)

	b, ok := reg.Get("nordea")
	require.True(t, ok)
	rec, _ := b.Record(sources.FairfinanceType)
	score, ok := rec.(*sources.Fairfinance).Score()
	require.True(t, ok)
	assert.Equal(t, 40.0, score)
	assert.Equal(t, []string{"Norway", "Sweden"}, b.Countries())
}

func TestFixedCountrySources(t *testing.T) {
	reg := newRegistry()
	ctx := context.Background()

	_, err := Switchit{}.Load(ctx, pipeline.Payloads{SwitchitInput: []byte("company_name,rating\nMonzo,Great\n")}, reg)
	require.NoError(t, err)
	_, err = Marketforces{}.Load(ctx, pipeline.Payloads{MarketforcesInput: []byte("Name,Amount Invested,Position\nBendigo Bank,$0,No fossil fuels\nANZ,unknown,\n")}, reg)
	require.NoError(t, err)

	monzo, ok := reg.Get("monzo")
	require.True(t, ok)
	assert.Equal(t, []string{"United Kingdom"}, monzo.Countries())

	bendigo, ok := reg.Get("bendigo_bank")
	require.True(t, ok)
	rec, _ := bendigo.Record(sources.MarketforcesType)
	assert.True(t, rec.(*sources.Marketforces).NoFossilFinancing())

	anz, ok := reg.Get("anz")
	require.True(t, ok)
	rec, _ = anz.Record(sources.MarketforcesType)
	assert.Nil(t, rec.(*sources.Marketforces).FossilFinancing)
}

func TestCustombankOverrides(t *testing.T) {
	reg := newRegistry()
	in := pipeline.Payloads{CustombankInput: []byte(
		"Preferred Bank Name,Bank Tag,Country,Subsidiary Of Tag,Rating,Rating Reason,Website\n" +
			"Atom Bank,atom,\"UK, Ireland\",,Great,Does not lend to fossil fuels,HTTPS://ATOM.BANK\n" +
			"Nowhere Bank,,Atlantis,,,,\n")}

	stats, err := Custombank{}.Load(context.Background(), in, reg)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Registered)
	assert.Equal(t, 1, stats.Skipped)

	b, ok := reg.Get("atom")
	require.True(t, ok)
	assert.Equal(t, []string{"Ireland", "United Kingdom"}, b.Countries())
	assert.Equal(t, "https://atom.bank", b.Website())
}

func TestUSNICLinksParents(t *testing.T) {
	reg := newRegistry()
	in := pipeline.Payloads{
		USNICActive: []byte(
			"#ID_RSSD,NM_SHORT,NM_LGL,ID_LEI,ID_FDIC_CERT,URL\n" +
				"100,Parent Holdings,PARENT HOLDINGS INC,0,0,\n" +
				"200,Child Bank,CHILD BANK NA,5493001KJTIIGC8Y1R12,3510,https://child.example\n" +
				"300,Minority Bank,MINORITY BANK NA,0,,\n"),
		USNICRelationships: []byte(
			"#ID_RSSD_PARENT,ID_RSSD_OFFSPRING,D_DT_END,PCT_EQUITY\n" +
				"100,200,12/31/9999 0:00,100\n" +
				"100,300,12/31/9999 0:00,10\n" +
				"999,300,12/31/9999 0:00,100\n"),
	}

	stats, err := USNIC{}.Load(context.Background(), in, reg)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Stats{Read: 3, Registered: 3, Linked: 1}, stats)

	parent, ok := reg.TagFor(identifiers.RSSD, "100")
	require.True(t, ok)
	child, ok := reg.TagFor(identifiers.RSSD, "200")
	require.True(t, ok)

	b, _ := reg.Get(child)
	assert.Equal(t, parent, b.SubsidiaryOf())
	assert.Equal(t, "5493001KJTIIGC8Y1R12", b.ID(identifiers.LEI))

	rec, _ := b.Record(sources.USNICType)
	assert.Equal(t, "3510", rec.(*sources.USNIC).OtherIDs["fdic_cert"])

	minority, _ := reg.TagFor(identifiers.RSSD, "300")
	mb, _ := reg.Get(minority)
	assert.Empty(t, mb.SubsidiaryOf())
}

func TestUSNICRelationshipPassReturnsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := pipeline.Payloads{
		USNICActive: []byte("#ID_RSSD,NM_SHORT\n100,Parent Holdings\n200,Child Bank\n"),
		USNICRelationships: []byte(
			"#ID_RSSD_PARENT,ID_RSSD_OFFSPRING,D_DT_END,PCT_EQUITY\n" +
				"100,200,12/31/9999 0:00,100\n"),
	}

	reg := newRegistry()
	stats, err := USNIC{}.Load(ctx, in, reg)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, stats.Registered)
	assert.Zero(t, stats.Linked)
}

func TestRegulatorID(t *testing.T) {
	assert.Equal(t, "", regulatorID("0"))
	assert.Equal(t, "", regulatorID("0.0"))
	assert.Equal(t, "", regulatorID("nan"))
	assert.Equal(t, "480228", regulatorID("480228.0"))
}

const sparqlFixture = `{"results":{"bindings":[
 {"bank":{"value":"http://www.wikidata.org/entity/Q1"},"bankLabel":{"value":"Big Bank","xml:lang":"en"},"countryLabel":{"value":"Germany"},"lei":{"value":"LEI1"},"website":{"value":"https://z.example"}},
 {"bank":{"value":"http://www.wikidata.org/entity/Q1"},"bankLabel":{"value":"Big Bank","xml:lang":"en"},"countryLabel":{"value":"Germany"},"website":{"value":"https://a.example"},"bankAltLabel":{"value":"BB"}},
 {"bank":{"value":"http://www.wikidata.org/entity/Q2"},"bankLabel":{"value":"Small Bank","xml:lang":"en"},"countryLabel":{"value":"Austria"},"parent":{"value":"http://www.wikidata.org/entity/Q99"}},
 {"bank":{"value":"http://www.wikidata.org/entity/Q2"},"bankLabel":{"value":"Small Bank","xml:lang":"en"},"countryLabel":{"value":"Austria"},"parent":{"value":"http://www.wikidata.org/entity/Q1"}},
 {"bank":{"value":"http://www.wikidata.org/entity/Q3"},"bankLabel":{"value":"Old Bank","xml:lang":"en"},"countryLabel":{"value":"Germany"},"deathyear":{"value":"1931"}},
 {"bank":{"value":"http://www.wikidata.org/entity/Q4"},"bankLabel":{"value":"Royal Bank of Prussia","xml:lang":"en"},"countryLabel":{"value":"Kingdom of Prussia"}},
 {"bank":{"value":"http://www.wikidata.org/entity/Q5"},"countryLabel":{"value":"Germany"}}
]}}`

func TestWikidataLoad(t *testing.T) {
	reg := newRegistry()
	stats, err := Wikidata{}.Load(context.Background(), pipeline.Payloads{WikidataInput: []byte(sparqlFixture)}, reg)
	require.NoError(t, err)

	assert.Equal(t, pipeline.Stats{Read: 5, Registered: 2, Skipped: 3, Linked: 1}, stats)

	big, ok := reg.Get("big_bank")
	require.True(t, ok)
	assert.Equal(t, "https://a.example", big.Website())
	assert.Equal(t, "Q1", big.ID(identifiers.WikiID))
	assert.Contains(t, big.Aliases(), "bb")

	small, ok := reg.Get("small_bank")
	require.True(t, ok)
	assert.Equal(t, "big_bank", small.SubsidiaryOf())
}

func TestWikidataQueryURL(t *testing.T) {
	u := WikidataQueryURL(WikidataEndpoint, "SELECT ?x WHERE {}")
	assert.Contains(t, u, "https://query.wikidata.org/sparql?")
	assert.Contains(t, u, "format=json")
	assert.Contains(t, u, "query=SELECT")
}

func TestStages(t *testing.T) {
	stages := Stages("file:///data/", map[string]string{"wikidata.query": "https://example.test/q"})
	require.Len(t, stages, len(All()))

	p := pipeline.New(stages)
	require.NoError(t, p.Validate())

	assert.Equal(t, "file:///data/banktrack/bankprofiles.csv", stages[0].URLs[BanktrackInput])
	for _, s := range stages {
		switch s.Loader.Source() {
		case sources.WikidataType:
			assert.Equal(t, "https://example.test/q", s.URLs[WikidataInput])
		case sources.USNICType:
			assert.Equal(t, "file:///data/usnic/relationships.csv", s.URLs[USNICRelationships])
		}
	}

	l, ok := For(sources.GabvType)
	require.True(t, ok)
	assert.Equal(t, sources.GabvType, l.Source())
}

func TestFetcherRoutesByScheme(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	local := pipeline.FetcherFunc(func(_ context.Context, url string) ([]byte, error) {
		return []byte("local:" + url), nil
	})
	f := Fetcher(transport.New(nil, ""), local)

	data, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "remote", string(data))

	data, err = f.Fetch(context.Background(), "mem://localhost/x.csv")
	require.NoError(t, err)
	assert.Equal(t, "local:mem://localhost/x.csv", string(data))
}
