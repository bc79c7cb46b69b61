package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/identifiers"
	"github.com/bankgreen/bankmap/pkg/logging"
	"github.com/bankgreen/bankmap/pkg/rating"
	"github.com/bankgreen/bankmap/pkg/seed"
	"github.com/bankgreen/bankmap/pkg/sources"
)

func testSeed() *seed.Maps {
	return &seed.Maps{
		PreferredNames: []string{"Santander"},
		NameTags:       map[string]string{"Banco Santander": "santander"},
	}
}

func TestCreateOrUpdateBanktrack(t *testing.T) {
	reg := New()
	b, err := reg.CreateOrUpdate(sources.NewBanktrack(sources.Base{
		Name:      "aname",
		Countries: []string{"Canada"},
		SourceTag: "atag",
	}, sources.BanktrackInfo{}))
	require.NoError(t, err)

	assert.Equal(t, "atag", b.Tag())
	assert.Equal(t, "aname", b.Name())
	assert.Equal(t, []string{"Canada"}, b.Countries())
	assert.Contains(t, b.DataSources(), "banktrack")

	tag, ok := reg.Index().LookupName("aname")
	assert.True(t, ok)
	assert.Equal(t, "atag", tag)
}

func TestSantanderMerge(t *testing.T) {
	reg := New(WithSeed(testSeed()))

	_, err := reg.CreateOrUpdate(sources.NewBanktrack(sources.Base{
		Name:      "Santander",
		Countries: []string{"Mexico"},
		SourceTag: "santander",
	}, sources.BanktrackInfo{}))
	require.NoError(t, err)
	_, err = reg.CreateOrUpdate(sources.NewBOCC(sources.Base{
		Name:      "Banco Santander",
		Countries: []string{"Argentina"},
	}, sources.BOCCInfo{}))
	require.NoError(t, err)

	require.Equal(t, 1, reg.Len())
	b, ok := reg.Get("santander")
	require.True(t, ok)
	assert.Equal(t, "Santander", b.Name())
	assert.Equal(t, []string{"Argentina", "Mexico"}, b.Countries())
}

func TestIdentifierResolutionAcrossSources(t *testing.T) {
	reg := New()
	_, err := reg.CreateOrUpdate(sources.NewWikidata(sources.Base{
		Name: "Example Bank Group",
		IDs:  identifiers.Set{identifiers.LEI: "LEI-1", identifiers.WikiID: "Q1"},
	}, sources.WikidataInfo{}))
	require.NoError(t, err)

	b, err := reg.CreateOrUpdate(sources.NewUSNIC(sources.Base{
		Name: "EXAMPLE BK",
		IDs:  identifiers.Set{identifiers.LEI: "LEI-1", identifiers.RSSD: "77"},
	}, sources.USNICInfo{}))
	require.NoError(t, err)

	assert.Equal(t, "example_bank_group", b.Tag())
	assert.Equal(t, 1, reg.Len())
	tag, ok := reg.TagFor(identifiers.RSSD, "77")
	assert.True(t, ok)
	assert.Equal(t, "example_bank_group", tag)
}

func TestCreateOrUpdateIdempotent(t *testing.T) {
	reg := New()
	rec := sources.NewSwitchit(sources.Base{Name: "HSBC", Countries: []string{"United Kingdom"}}, "bad")

	first, err := reg.CreateOrUpdate(rec)
	require.NoError(t, err)
	name, countries, aliases := first.Name(), first.Countries(), first.Aliases()
	r1, reason1 := first.Rating()

	second, err := reg.CreateOrUpdate(rec)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, name, second.Name())
	assert.Equal(t, countries, second.Countries())
	assert.Equal(t, aliases, second.Aliases())
	r2, reason2 := second.Rating()
	assert.Equal(t, r1, r2)
	assert.Equal(t, reason1, reason2)
}

func TestGabvUnionThroughRegistry(t *testing.T) {
	reg := New(WithSeed(testSeed()))
	for _, country := range []string{"Argentina", "Mexico"} {
		_, err := reg.CreateOrUpdate(sources.NewGabv(sources.Base{Name: "Banco Santander", Countries: []string{country}}, sources.GabvInfo{}))
		require.NoError(t, err)
	}
	b, ok := reg.Get("santander")
	require.True(t, ok)
	assert.Equal(t, []string{"Argentina", "Mexico"}, b.Countries())
}

func TestSubsidiaryRatingThroughRegistry(t *testing.T) {
	reg := New()
	_, err := reg.CreateOrUpdate(sources.NewSwitchit(sources.Base{Name: "HSBC"}, "bad"))
	require.NoError(t, err)
	child, err := reg.CreateOrUpdate(sources.NewCustombank(sources.Base{Name: "subsidiary_bank", SubsidiaryOf: "hsbc"}, sources.CustombankInfo{}))
	require.NoError(t, err)

	parent, _ := reg.Get("hsbc")
	pr, _ := parent.Rating()
	cr, reason := child.Rating()
	assert.Equal(t, pr, cr)
	assert.Equal(t, rating.Bad, cr)
	assert.Contains(t, reason, "is owned and/or operated by HSBC")
}

func TestResolveHasNoSideEffects(t *testing.T) {
	reg := New()
	rec := sources.NewSwitchit(sources.Base{Name: "Some Bank", IDs: identifiers.Set{identifiers.PermID: "1"}}, "")

	a, err := reg.Resolve(rec)
	require.NoError(t, err)
	b, err := reg.Resolve(rec)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 0, reg.Len())
	_, ok := reg.TagFor(identifiers.PermID, "1")
	assert.False(t, ok)
}

func TestDataQualityError(t *testing.T) {
	reg := New()
	_, err := reg.CreateOrUpdate(sources.NewCustombank(sources.Base{Name: "   "}, sources.CustombankInfo{Rating: "ok"}))
	require.Error(t, err)
	assert.True(t, errors.IsDataQuality(err))
	assert.Equal(t, 0, reg.Len())
}

func TestTagsAndBanksSorted(t *testing.T) {
	reg := New()
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		_, err := reg.CreateOrUpdate(sources.NewSwitchit(sources.Base{Name: name}, ""))
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, reg.Tags())
	banks := reg.Banks()
	require.Len(t, banks, 3)
	assert.Equal(t, "alpha", banks[0].Tag())
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := New()
	_, err := a.CreateOrUpdate(sources.NewSwitchit(sources.Base{Name: "Only In A"}, ""))
	require.NoError(t, err)

	b := New()
	assert.Equal(t, 0, b.Len())
	_, ok := b.Index().LookupName("Only In A")
	assert.False(t, ok)
}

func TestLogsResolution(t *testing.T) {
	tl := logging.NewTestLogger(t)
	reg := New(WithLogger(tl.Logger))
	_, err := reg.CreateOrUpdate(sources.NewSwitchit(sources.Base{Name: "HSBC"}, ""))
	require.NoError(t, err)

	tl.AssertContains(t, `"tag":"hsbc"`)
	tl.AssertContains(t, `"step":"generated"`)
}
