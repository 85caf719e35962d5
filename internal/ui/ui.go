package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ytboxd/internal/models"
	"github.com/desertthunder/ytboxd/internal/repositories"
	"github.com/desertthunder/ytboxd/internal/tasks"
)

// ViewState tracks which view the model is currently rendering.
type ViewState int

const (
	SectionListView ViewState = iota
	VideoListView
	SyncView
)

// Model is the bubbletea model for the library browser.
type Model struct {
	ctx    context.Context
	userID string

	videos    *repositories.VideoRepository
	playlists *repositories.PlaylistRepository
	tags      *repositories.TagRepository
	engine    tasks.SyncEngine

	state     ViewState
	sections  list.Model
	videoList list.Model

	progressChan chan tasks.ProgressUpdate
	doneChan     chan syncDoneMsg
	syncLines    []string
	syncing      bool

	keys   keyMap
	help   help.Model
	styles Palette
	err    error
	width  int
	height int
}

// New builds the browser model. The engine may be nil, in which case
// the sync binding is disabled.
func New(ctx context.Context, userID string, videos *repositories.VideoRepository, playlists *repositories.PlaylistRepository, tags *repositories.TagRepository, engine tasks.SyncEngine) Model {
	sections := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	sections.Title = "Library"
	sections.SetShowHelp(false)

	videoList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	videoList.SetShowHelp(false)

	return Model{
		ctx:       ctx,
		userID:    userID,
		videos:    videos,
		playlists: playlists,
		tags:      tags,
		engine:    engine,
		state:     SectionListView,
		sections:  sections,
		videoList: videoList,
		keys:      newKeyMap(),
		help:      help.New(),
		styles:    NewPalette(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadSections()
}

// loadSections rebuilds the top-level list from the local database:
// the fixed categories, then synced playlists, then tags.
func (m Model) loadSections() tea.Cmd {
	return func() tea.Msg {
		sections := []sectionItem{
			categorySection(models.CategoryLiked, "Liked videos"),
			categorySection(models.CategorySaved, "Watch later"),
			categorySection(models.CategoryHistory, "History"),
		}

		playlists, err := m.playlists.List(m.userID)
		if err != nil {
			return errMsg{err}
		}
		for _, p := range playlists {
			sections = append(sections, playlistSection(p))
		}

		tags, err := m.tags.List(m.userID)
		if err != nil {
			return errMsg{err}
		}
		for _, t := range tags {
			sections = append(sections, tagSection(t))
		}

		return sectionsLoadedMsg{sections: sections}
	}
}

// loadVideos fetches the videos of a section.
func (m Model) loadVideos(section sectionItem) tea.Cmd {
	return func() tea.Msg {
		videos, err := m.videos.List(m.userID, section.criteria)
		if err != nil {
			return errMsg{err}
		}

		items := make([]videoItem, 0, len(videos))
		for _, v := range videos {
			items = append(items, videoItem{video: v})
		}

		return videosLoadedMsg{section: section, videos: items}
	}
}

// startSync launches a full sync in the background. Progress flows
// through progressChan until the run finishes, then the closed channel
// hands off to doneChan.
func (m *Model) startSync() tea.Cmd {
	progressChan := make(chan tasks.ProgressUpdate, 16)
	doneChan := make(chan syncDoneMsg, 1)
	m.progressChan = progressChan
	m.doneChan = doneChan
	m.syncLines = nil
	m.syncing = true

	go func() {
		result, err := m.engine.SyncAll(m.ctx, progressChan)
		close(progressChan)
		doneChan <- syncDoneMsg{result: result, err: err}
	}()

	return m.waitForProgress()
}

// waitForProgress blocks on the next progress update, or the final
// result once the progress channel is drained.
func (m Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progressChan
		if !ok {
			return <-m.doneChan
		}
		return syncProgressMsg{update: update}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := msg.Height - 4
		m.sections.SetSize(msg.Width, listHeight)
		m.videoList.SetSize(msg.Width, listHeight)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case sectionsLoadedMsg:
		items := make([]list.Item, len(msg.sections))
		for i, s := range msg.sections {
			items[i] = s
		}
		m.sections.SetItems(items)
		return m, nil

	case videosLoadedMsg:
		items := make([]list.Item, len(msg.videos))
		for i, v := range msg.videos {
			items[i] = v
		}
		m.videoList.Title = msg.section.label
		m.videoList.SetItems(items)
		m.videoList.ResetSelected()
		m.state = VideoListView
		return m, nil

	case syncProgressMsg:
		m.syncLines = append(m.syncLines, msg.update.Message)
		return m, m.waitForProgress()

	case syncDoneMsg:
		m.syncing = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.syncLines = append(m.syncLines, summarizeRun(msg.result)...)
		return m, m.loadSections()

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	return m.updateLists(msg)
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.state {
	case SectionListView:
		return m.handleSectionKeys(msg)
	case VideoListView:
		return m.handleVideoKeys(msg)
	case SyncView:
		return m.handleSyncKeys(msg)
	}

	return m, nil
}

func (m Model) handleSectionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		if section, ok := m.sections.SelectedItem().(sectionItem); ok {
			return m, m.loadVideos(section)
		}
		return m, nil
	case key.Matches(msg, m.keys.Sync):
		if m.engine == nil || m.syncing {
			return m, nil
		}
		m.state = SyncView
		m.err = nil
		cmd := m.startSync()
		return m, cmd
	}

	var cmd tea.Cmd
	m.sections, cmd = m.sections.Update(msg)
	return m, cmd
}

func (m Model) handleVideoKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.state = SectionListView
		return m, nil
	}

	var cmd tea.Cmd
	m.videoList, cmd = m.videoList.Update(msg)
	return m, cmd
}

func (m Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) && !m.syncing {
		m.state = SectionListView
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.state {
	case SectionListView:
		m.sections, cmd = m.sections.Update(msg)
	case VideoListView:
		m.videoList, cmd = m.videoList.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	switch m.state {
	case VideoListView:
		return m.renderVideoList()
	case SyncView:
		return m.renderSync()
	default:
		return m.renderSections()
	}
}

func (m Model) renderSections() string {
	var b strings.Builder
	b.WriteString(m.sections.View())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(m.styles.err.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.help.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderVideoList() string {
	var b strings.Builder
	b.WriteString(m.videoList.View())
	b.WriteString("\n")
	b.WriteString(m.styles.help.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderSync() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Syncing library"))
	b.WriteString("\n\n")

	for _, line := range m.syncLines {
		b.WriteString("  " + line + "\n")
	}

	switch {
	case m.err != nil:
		b.WriteString("\n" + m.styles.err.Render("sync failed: "+m.err.Error()) + "\n")
		b.WriteString(m.styles.help.Render("esc to go back"))
	case m.syncing:
		b.WriteString("\n" + m.styles.warn.Render("working...") + "\n")
	default:
		b.WriteString("\n" + m.styles.ok.Render("done") + "\n")
		b.WriteString(m.styles.help.Render("esc to go back"))
	}

	return b.String()
}

// summarizeRun flattens a finished sync run into display lines.
func summarizeRun(result *tasks.SyncRunResult) []string {
	if result == nil {
		return nil
	}

	var lines []string
	if result.PlaylistsErr != nil {
		lines = append(lines, fmt.Sprintf("playlist listing failed: %v", result.PlaylistsErr))
	}
	for _, p := range result.Playlists {
		if p.Skipped {
			lines = append(lines, fmt.Sprintf("%s: skipped", p.Title))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: +%d -%d", p.Title, p.Added, p.Removed))
	}
	for _, c := range result.Categories {
		if c.Skipped {
			lines = append(lines, fmt.Sprintf("%s: skipped", c.Category))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: +%d -%d", c.Category, c.Added, c.Removed))
	}
	return lines
}
