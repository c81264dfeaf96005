package miner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/researchaccelerator-hub/innertube-miner/config"
	"github.com/researchaccelerator-hub/innertube-miner/document"
	"github.com/researchaccelerator-hub/innertube-miner/enrich"
	"github.com/researchaccelerator-hub/innertube-miner/model/youtube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const subjectID = "dQw4w9WgXcQ"

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Connect(ctx context.Context) error    { return m.Called(ctx).Error(0) }
func (m *mockSource) Disconnect(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *mockSource) WatchPage(ctx context.Context, videoID, listID string) (document.Node, error) {
	return m.result(m.Called(ctx, videoID, listID))
}

func (m *mockSource) Next(ctx context.Context, token string) (document.Node, error) {
	return m.result(m.Called(ctx, token))
}

func (m *mockSource) Browse(ctx context.Context, browseID string) (document.Node, error) {
	return m.result(m.Called(ctx, browseID))
}

func (m *mockSource) BrowseContinuation(ctx context.Context, token string) (document.Node, error) {
	return m.result(m.Called(ctx, token))
}

func (m *mockSource) result(args mock.Arguments) (document.Node, error) {
	n, _ := args.Get(0).(document.Node)
	return n, args.Error(1)
}

const watchPage = `{"contents":{"twoColumnWatchNextResults":{
  "results":{"results":{"contents":[
    {"videoPrimaryInfoRenderer":{
      "title":{"runs":[{"text":"Main "},{"text":"Title"}]},
      "viewCount":{"videoViewCountRenderer":{"viewCount":{"simpleText":"1,234 views"}}},
      "dateText":{"simpleText":"Jan 1, 2024"}}},
    {"videoSecondaryInfoRenderer":{
      "owner":{"videoOwnerRenderer":{
        "title":{"runs":[{"text":"Channel Name"}]},
        "navigationEndpoint":{"browseEndpoint":{"browseId":"UCuAXFkgsw1L7xaCfnd5JJOw"}}}},
      "attributedDescription":{"content":"The description."}}}
  ]}},
  "secondaryResults":{"secondaryResults":{"results":[
    {"compactVideoRenderer":{"videoId":"AAAAAAAAAAA","title":{"simpleText":"Related A"},
      "lengthText":{"simpleText":"3:21"},
      "thumbnail":{"thumbnails":[{"url":"https://s/a-small.jpg"},{"url":"https://s/a-big.jpg"}]}}},
    {"compactVideoRenderer":{"videoId":"dQw4w9WgXcQ","title":{"simpleText":"Itself"}}},
    {"continuationItemRenderer":{"continuationEndpoint":{"continuationCommand":{"token":"NEXT1"}}}}
  ]}}
}}}`

const nextPage = `{"onResponseReceivedEndpoints":[{"appendContinuationItemsAction":{"continuationItems":[
  {"compactVideoRenderer":{"videoId":"BBBBBBBBBBB","title":{"simpleText":"Related B"}}},
  {"compactVideoRenderer":{"videoId":"AAAAAAAAAAA","title":{"simpleText":"Related A again"}}}
]}}]}`

func pagination() config.PaginationConfig {
	return config.PaginationConfig{Cap: 20, MaxAttempts: 3, MaxDepth: 50}
}

func relatedIDs(videos []youtube.Video) []string {
	out := make([]string, len(videos))
	for i, v := range videos {
		out[i] = v.ID
	}
	return out
}

func TestVideoInfo(t *testing.T) {
	src := &mockSource{}
	src.On("WatchPage", mock.Anything, subjectID, "").Return(document.MustParse(watchPage), nil).Once()
	src.On("Next", mock.Anything, "NEXT1").Return(document.MustParse(nextPage), nil).Once()

	m := New(src, pagination(), enrich.NewPool(enrich.TemplateResolver{}, 2))
	info, err := m.VideoInfo(context.Background(), subjectID)
	require.NoError(t, err)

	assert.Equal(t, subjectID, info.ID)
	assert.Equal(t, "Main Title", info.Title)
	assert.Equal(t, "1,234 views", *info.ViewCountText)
	assert.Equal(t, "Jan 1, 2024", *info.PublishedText)
	assert.Equal(t, "Channel Name", *info.Author.Name)
	assert.Equal(t, "UCuAXFkgsw1L7xaCfnd5JJOw", *info.Author.ID)
	assert.Equal(t, "The description.", info.Description)
	assert.Equal(t, "https://www.youtube.com/watch?v="+subjectID, info.URL)
	assert.Equal(t, "https://i.ytimg.com/vi/"+subjectID+"/hqdefault.jpg", *info.ThumbnailRef)

	require.Equal(t, []string{"AAAAAAAAAAA", "BBBBBBBBBBB"}, relatedIDs(info.Related))
	assert.Equal(t, "Related A", info.Related[0].Title)
	assert.Equal(t, "3:21", *info.Related[0].Duration)
	assert.Equal(t, "https://i.ytimg.com/vi/AAAAAAAAAAA/hqdefault.jpg", *info.Related[0].ThumbnailRef)

	src.AssertExpectations(t)
}

const watchPageWithComments = `{"contents":{"twoColumnWatchNextResults":{
  "results":{"results":{"contents":[
    {"videoPrimaryInfoRenderer":{"title":{"simpleText":"Main"},"dateText":{"simpleText":"Jan 1, 2024"}}},
    {"itemSectionRenderer":{"sectionIdentifier":"comment-item-section","contents":[
      {"continuationItemRenderer":{"continuationEndpoint":{"continuationCommand":{"token":"COMMENTS"}}}}
    ]}}
  ]}},
  "secondaryResults":{"secondaryResults":{"results":[
    {"compactVideoRenderer":{"videoId":"AAAAAAAAAAA","title":{"simpleText":"Related A"}}},
    {"continuationItemRenderer":{"continuationEndpoint":{"continuationCommand":{"token":"NEXT1"}}}}
  ]}}
}}}`

func TestVideoInfoFollowsRelatedContinuation(t *testing.T) {
	tests := []struct {
		name string
		page string
		want []string
	}{
		{"comments before related", watchPageWithComments, []string{"AAAAAAAAAAA", "BBBBBBBBBBB"}},
		{"no secondary column", `{"contents":[
		  {"compactVideoRenderer":{"videoId":"CCCCCCCCCCC","title":{"simpleText":"C"}}},
		  {"continuationItemRenderer":{"continuationEndpoint":{"continuationCommand":{"token":"NEXT1"}}}}]}`,
			[]string{"CCCCCCCCCCC", "BBBBBBBBBBB", "AAAAAAAAAAA"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &mockSource{}
			src.On("WatchPage", mock.Anything, subjectID, "").Return(document.MustParse(tt.page), nil).Once()
			src.On("Next", mock.Anything, "NEXT1").Return(document.MustParse(nextPage), nil).Once()

			info, err := New(src, pagination(), nil).VideoInfo(context.Background(), subjectID)
			require.NoError(t, err)

			assert.Equal(t, tt.want, relatedIDs(info.Related))
			src.AssertNotCalled(t, "Next", mock.Anything, "COMMENTS")
			src.AssertExpectations(t)
		})
	}
}

func TestVideoInfoWithoutEnrichmentKeepsMinedThumbnails(t *testing.T) {
	src := &mockSource{}
	src.On("WatchPage", mock.Anything, subjectID, "").Return(document.MustParse(watchPage), nil)
	src.On("Next", mock.Anything, "NEXT1").Return(document.MustParse(nextPage), nil)

	info, err := New(src, pagination(), nil).VideoInfo(context.Background(), subjectID)
	require.NoError(t, err)

	assert.Nil(t, info.ThumbnailRef)
	assert.Equal(t, "https://s/a-big.jpg", *info.Related[0].ThumbnailRef)
	assert.Nil(t, info.Related[1].ThumbnailRef)
}

func TestVideoInfoContinuationFailureKeepsPartialResults(t *testing.T) {
	src := &mockSource{}
	src.On("WatchPage", mock.Anything, subjectID, "").Return(document.MustParse(watchPage), nil)
	src.On("Next", mock.Anything, "NEXT1").Return(nil, errors.New("status 500"))

	info, err := New(src, pagination(), nil).VideoInfo(context.Background(), subjectID)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAAAAAAAAA"}, relatedIDs(info.Related))
}

func TestVideoInfoWatchPageError(t *testing.T) {
	src := &mockSource{}
	src.On("WatchPage", mock.Anything, subjectID, "").Return(nil, errors.New("boom"))

	_, err := New(src, pagination(), nil).VideoInfo(context.Background(), subjectID)
	assert.Error(t, err)
}

func TestVideoInfoUnsearchablePage(t *testing.T) {
	src := &mockSource{}
	src.On("WatchPage", mock.Anything, subjectID, "").Return(document.Scalar{Value: "nope"}, nil)

	_, err := New(src, pagination(), nil).VideoInfo(context.Background(), subjectID)
	assert.ErrorIs(t, err, document.ErrMalformed)
}

func TestVideoInfoRespectsCap(t *testing.T) {
	src := &mockSource{}
	src.On("WatchPage", mock.Anything, subjectID, "").Return(document.MustParse(watchPage), nil)

	cfg := pagination()
	cfg.Cap = 1
	info, err := New(src, cfg, nil).VideoInfo(context.Background(), subjectID)
	require.NoError(t, err)

	assert.Len(t, info.Related, 1)
	src.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
}

func TestVideoDetailsDefaults(t *testing.T) {
	info := videoDetails(document.MustParse(`{"contents":{}}`), subjectID, 0)

	assert.Equal(t, "Untitled", info.Title)
	assert.Equal(t, "Unknown", *info.Author.Name)
	assert.Nil(t, info.Author.ID)
	assert.Nil(t, info.ViewCountText)
	assert.Nil(t, info.PublishedText)
	assert.Equal(t, "", info.Description)
	assert.NotNil(t, info.Related)
}

func TestVideoDetailsPrimaryNeedsViewsOrDate(t *testing.T) {
	doc := document.MustParse(`{"a":{"title":{"simpleText":"Not this"}},
		"b":{"title":{"simpleText":""},"viewCount":{"simpleText":"1 view"}},
		"c":{"title":{"simpleText":"This one"},"dateText":{"simpleText":"today"},"publishDate":{"simpleText":"ignored"}}}`)

	info := videoDetails(doc, subjectID, 50)
	assert.Equal(t, "This one", info.Title)
	assert.Equal(t, "today", *info.PublishedText)
	assert.Equal(t, "1 view", *info.ViewCountText)
}

func TestDescriptionFallsBackToLongestRuns(t *testing.T) {
	long := strings.Repeat("x", 60)
	longer := strings.Repeat("y", 80)
	doc := document.MustParse(`{"a":{"runs":[{"text":"short"}]},
		"b":{"runs":[{"text":"` + long + `"}]},
		"c":{"runs":[{"text":"` + longer[:40] + `"},{"text":"` + longer[40:] + `"}]}}`)

	assert.Equal(t, longer, description(doc, 50))
}

func TestDescriptionIgnoresShortRuns(t *testing.T) {
	doc := document.MustParse(`{"a":{"runs":[{"text":"` + strings.Repeat("z", 50) + `"}]}}`)
	assert.Equal(t, "", description(doc, 50))
}

func TestDescriptionTruncated(t *testing.T) {
	doc := document.MustParse(`{"attributedDescription":{"content":"` + strings.Repeat("あ", 1200) + `"}}`)
	got := description(doc, 50)
	assert.Equal(t, strings.Repeat("あ", 1000), got)
}

const mixPage = `{"contents":{"twoColumnWatchNextResults":{"playlist":{"playlist":{
  "title":"Mix - Song",
  "contents":[
    {"playlistPanelVideoRenderer":{"videoId":"dQw4w9WgXcQ","title":{"simpleText":"First"},
      "lengthText":{"simpleText":"3:33"},
      "navigationEndpoint":{"watchEndpoint":{"videoId":"dQw4w9WgXcQ"}}}},
    {"playlistPanelVideoRenderer":{"videoId":"CCCCCCCCCCC","title":{"runs":[{"text":"Second"}]}}},
    {"playlistPanelVideoRenderer":{"videoId":"dQw4w9WgXcQ","title":{"simpleText":"First again"}}}
  ]}}}}}`

func TestPlaylistMix(t *testing.T) {
	src := &mockSource{}
	src.On("WatchPage", mock.Anything, subjectID, "RD"+subjectID).Return(document.MustParse(mixPage), nil).Once()

	pl, err := New(src, pagination(), nil).Playlist(context.Background(), "RD"+subjectID, subjectID)
	require.NoError(t, err)

	assert.Equal(t, "RD"+subjectID, pl.ID)
	assert.Equal(t, "Mix - Song", *pl.Title)
	require.Equal(t, []string{subjectID, "CCCCCCCCCCC"}, relatedIDs(pl.Items))
	assert.Equal(t, "3:33", *pl.Items[0].Duration)
	src.AssertExpectations(t)
}

func TestPlaylistMixReturnsWholePanel(t *testing.T) {
	entries := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		entries = append(entries, fmt.Sprintf(
			`{"playlistPanelVideoRenderer":{"videoId":"mix%08d","title":{"simpleText":"Item %d"}}}`, i, i))
	}
	page := `{"contents":{"twoColumnWatchNextResults":{"playlist":{"playlist":{"title":"Mix","contents":[` +
		strings.Join(entries, ",") + `]}}}}}`

	src := &mockSource{}
	src.On("WatchPage", mock.Anything, subjectID, "RD"+subjectID).Return(document.MustParse(page), nil).Once()

	pl, err := New(src, pagination(), nil).Playlist(context.Background(), "RD"+subjectID, subjectID)
	require.NoError(t, err)

	require.Len(t, pl.Items, 25)
	assert.Equal(t, "mix00000024", pl.Items[24].ID)
	src.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
}

func TestPlaylistMixDerivesSeed(t *testing.T) {
	src := &mockSource{}
	src.On("WatchPage", mock.Anything, subjectID, "RD"+subjectID).Return(document.MustParse(mixPage), nil).Once()

	_, err := New(src, pagination(), nil).Playlist(context.Background(), "RD"+subjectID, "")
	require.NoError(t, err)
	src.AssertExpectations(t)
}

func TestPlaylistMixRequiresVideo(t *testing.T) {
	src := &mockSource{}
	_, err := New(src, pagination(), nil).Playlist(context.Background(), "RDMM", "")
	assert.ErrorIs(t, err, ErrVideoRequired)
}

func TestPlaylistMixWithoutPanel(t *testing.T) {
	src := &mockSource{}
	src.On("WatchPage", mock.Anything, subjectID, "RD"+subjectID).Return(document.MustParse(`{"contents":{}}`), nil)

	pl, err := New(src, pagination(), nil).Playlist(context.Background(), "RD"+subjectID, "")
	require.NoError(t, err)
	assert.Nil(t, pl.Title)
	assert.Empty(t, pl.Items)
}

const browsePage = `{"metadata":{"playlistMetadataRenderer":{"title":"My List"}},
  "contents":{"sectionListRenderer":{"contents":[{"playlistVideoListRenderer":{"contents":[
    {"playlistVideoRenderer":{"videoId":"DDDDDDDDDDD","title":{"runs":[{"text":"One"}]},"lengthSeconds":"75",
      "shortBylineText":{"runs":[{"text":"Uploader","navigationEndpoint":{"browseEndpoint":{"browseId":"UCuAXFkgsw1L7xaCfnd5JJOw"}}}]}}},
    {"continuationItemRenderer":{"continuationEndpoint":{"continuationCommand":{"token":"PAGE2"}}}}
  ]}}]}}}`

const browseContinuation = `{"onResponseReceivedActions":[{"appendContinuationItemsAction":{"continuationItems":[
  {"playlistVideoRenderer":{"videoId":"EEEEEEEEEEE","title":{"simpleText":"Two"}}}
]}}]}`

func TestPlaylistBrowse(t *testing.T) {
	src := &mockSource{}
	src.On("Browse", mock.Anything, "VLPLabcdef").Return(document.MustParse(browsePage), nil).Once()
	src.On("BrowseContinuation", mock.Anything, "PAGE2").Return(document.MustParse(browseContinuation), nil).Once()

	pl, err := New(src, pagination(), enrich.NewPool(enrich.TemplateResolver{}, 1)).
		Playlist(context.Background(), "PLabcdef", "")
	require.NoError(t, err)

	assert.Equal(t, "My List", *pl.Title)
	require.Equal(t, []string{"DDDDDDDDDDD", "EEEEEEEEEEE"}, relatedIDs(pl.Items))
	assert.Equal(t, "1:15", *pl.Items[0].Duration)
	assert.Equal(t, "Uploader", *pl.Items[0].Author.Name)
	assert.Equal(t, "UCuAXFkgsw1L7xaCfnd5JJOw", *pl.Items[0].Author.ID)
	assert.Equal(t, "https://i.ytimg.com/vi/EEEEEEEEEEE/hqdefault.jpg", *pl.Items[1].ThumbnailRef)
	src.AssertExpectations(t)
}

func TestPlaylistBrowseHeaderTitle(t *testing.T) {
	doc := document.MustParse(`{"header":{"playlistHeaderRenderer":{"title":{"simpleText":"Header Title"}}}}`)
	assert.Equal(t, "Header Title", *playlistTitle(doc, 0))
	assert.Nil(t, playlistTitle(document.MustParse(`{}`), 0))
}

func TestPlaylistInvalidID(t *testing.T) {
	_, err := New(&mockSource{}, pagination(), nil).Playlist(context.Background(), "bad id!", "")
	assert.Error(t, err)
}

func TestPlaylistBrowseError(t *testing.T) {
	src := &mockSource{}
	src.On("Browse", mock.Anything, "VLPLabcdef").Return(nil, errors.New("boom"))

	_, err := New(src, pagination(), nil).Playlist(context.Background(), "PLabcdef", "")
	assert.Error(t, err)
}
