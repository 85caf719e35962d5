// package formatter provides functions to export tagged video lists to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/ytboxd/internal/models"
)

// TagExport couples a tag with the videos linked to it for file export.
type TagExport struct {
	Tag    *models.Tag
	Videos []*models.Video
}

// ExportToCSV converts a TagExport to CSV format with columns: VideoID, Title, Channel, Published, Liked, Saved, Note
func ExportToCSV(export *TagExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"VideoID", "Title", "Channel", "Published", "Liked", "Saved", "Note"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, video := range export.Videos {
		published := ""
		if !video.PublishedAt().IsZero() {
			published = video.PublishedAt().Format("2006-01-02")
		}
		record := []string{
			video.VideoID(),
			video.Title(),
			video.ChannelTitle(),
			published,
			strconv.FormatBool(video.IsLiked()),
			strconv.FormatBool(video.IsSaved()),
			video.CustomDescription(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a TagExport to Markdown format with optional cover image
func ExportToMarkdown(export *TagExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Tag.Name()))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	buf.WriteString(fmt.Sprintf("**Videos**: %d\n\n", len(export.Videos)))

	buf.WriteString("## Videos\n\n")
	for i, video := range export.Videos {
		buf.WriteString(fmt.Sprintf("%d. [%s](https://youtube.com/watch?v=%s) - %s\n", i+1, video.Title(), video.VideoID(), video.ChannelTitle()))
		if note := video.CustomDescription(); note != "" {
			buf.WriteString(fmt.Sprintf("   > %s\n", note))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a TagExport to plain text format
func ExportToText(export *TagExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Tag: %s\n", export.Tag.Name()))
	buf.WriteString(fmt.Sprintf("Videos: %d\n\n", len(export.Videos)))

	for i, video := range export.Videos {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, video.Title(), video.ChannelTitle()))
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of tag metadata (without the video list)
func ToMetadataJSON(export *TagExport) ([]byte, error) {
	metadata := map[string]any{
		"name":       export.Tag.Name(),
		"created_at": export.Tag.CreatedAt(),
		"videos":     len(export.Videos),
	}
	return json.MarshalIndent(metadata, "", "  ")
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	VideosFile   string
	MetadataFile string
}

// WriteCSVExport exports a tag to CSV format with an accompanying metadata JSON file.
//
// Defaults to the tag name as the base filename & creates {base}_videos.csv and {base}_metadata.json
func WriteCSVExport(export *TagExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Tag.Name()
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	videosFile := baseFilepath + "_videos.csv"
	if err := os.WriteFile(videosFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		VideosFile:   videosFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a tag to Markdown format in a dedicated directory.
//
// Directory name defaults to the tag name.
// The imageURL parameter is optional - if provided, attempts to download a cover image.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(export *TagExport, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.Tag.Name()
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := fmt.Sprintf("%s/%s", outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a tag to plain text format.
//
// Defaults to {tag}_videos.txt as the filename.
func WriteTextExport(export *TagExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_videos.txt", export.Tag.Name())
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
