package implementation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"kb-assistant-be/internal/entity"
	"kb-assistant-be/internal/repository/contract"

	"github.com/google/uuid"
)

const descriptionEntry = "_description"

// materialBucket mirrors one "Topic/Subtopic" entry of materials.json.
type materialBucket struct {
	Images []entity.Material `json:"images"`
	Files  []entity.Material `json:"files"`
}

func (b *materialBucket) list(kind string) []entity.Material {
	if kind == entity.MaterialKindImage {
		return b.Images
	}
	return b.Files
}

func (b *materialBucket) setList(kind string, items []entity.Material) {
	if kind == entity.MaterialKindImage {
		b.Images = items
	} else {
		b.Files = items
	}
}

func (b *materialBucket) empty() bool {
	return len(b.Images) == 0 && len(b.Files) == 0
}

// fileKnowledgeRepository keeps topics as directories under the texts
// area, one .txt per subtopic, and the materials index in a single JSON
// file. A single RWMutex serializes writers; index read-modify-write
// happens entirely inside the write lock.
type fileKnowledgeRepository struct {
	textsPath     string
	imagesPath    string
	filesPath     string
	materialsFile string

	mu sync.RWMutex
}

func NewFileKnowledgeRepository(texts, images, files, materialsFile string) (contract.KnowledgeRepository, error) {
	for _, dir := range []string{texts, images, files} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create knowledge dir %s: %w", dir, err)
		}
	}
	return &fileKnowledgeRepository{
		textsPath:     texts,
		imagesPath:    images,
		filesPath:     files,
		materialsFile: materialsFile,
	}, nil
}

// normalizeName is the canonical subtopic comparison form: lowercase with
// spaces collapsed to underscores.
func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func (r *fileKnowledgeRepository) ListTopics(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listTopicsLocked()
}

func (r *fileKnowledgeRepository) listTopicsLocked() ([]string, error) {
	entries, err := os.ReadDir(r.textsPath)
	if err != nil {
		return nil, err
	}
	var topics []string
	for _, e := range entries {
		if e.IsDir() {
			topics = append(topics, e.Name())
		}
	}
	sort.Strings(topics)
	return topics, nil
}

func (r *fileKnowledgeRepository) HasTopic(ctx context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, err := os.Stat(filepath.Join(r.textsPath, name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (r *fileKnowledgeRepository) TopicDescription(ctx context.Context, topic string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, err := os.ReadFile(filepath.Join(r.textsPath, topic, descriptionEntry+".txt"))
	if os.IsNotExist(err) {
		return "", contract.ErrTopicNotFound
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *fileKnowledgeRepository) AddTopic(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	topicPath := filepath.Join(r.textsPath, name)
	if _, err := os.Stat(topicPath); err == nil {
		return contract.ErrTopicExists
	}
	if err := os.MkdirAll(topicPath, 0755); err != nil {
		return err
	}

	description := fmt.Sprintf("# %s\n\nОписание раздела %s.", name, name)
	return os.WriteFile(filepath.Join(topicPath, descriptionEntry+".txt"), []byte(description), 0644)
}

func (r *fileKnowledgeRepository) ListSubtopics(ctx context.Context, topic string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listSubtopicsLocked(topic)
}

func (r *fileKnowledgeRepository) listSubtopicsLocked(topic string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(r.textsPath, topic))
	if os.IsNotExist(err) {
		return nil, contract.ErrTopicNotFound
	}
	if err != nil {
		return nil, err
	}
	var subtopics []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		name = strings.TrimSuffix(name, ".txt")
		if name == descriptionEntry {
			continue
		}
		subtopics = append(subtopics, name)
	}
	sort.Strings(subtopics)
	return subtopics, nil
}

func (r *fileKnowledgeRepository) FindSubtopic(ctx context.Context, topic, name string) (string, bool, error) {
	subtopics, err := r.ListSubtopics(ctx, topic)
	if err != nil {
		return "", false, err
	}
	normalized := normalizeName(name)
	for _, s := range subtopics {
		if normalizeName(s) == normalized {
			return s, true, nil
		}
	}
	return "", false, nil
}

func (r *fileKnowledgeRepository) AddSubtopic(ctx context.Context, topic, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.listSubtopicsLocked(topic)
	if err != nil {
		return err
	}
	normalized := normalizeName(name)
	for _, s := range existing {
		if normalizeName(s) == normalized {
			return contract.ErrSubtopicExists
		}
	}

	body := fmt.Sprintf("# %s\n\nОписание подраздела %s.", name, name)
	path := filepath.Join(r.textsPath, topic, normalized+".txt")
	return os.WriteFile(path, []byte(body), 0644)
}

func (r *fileKnowledgeRepository) SubtopicContent(ctx context.Context, topic, subtopic string) (*entity.SubtopicContent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(r.textsPath, topic, subtopic+".txt"))
	if os.IsNotExist(err) {
		return nil, contract.ErrSubtopicNotFound
	}
	if err != nil {
		return nil, err
	}

	materials, err := r.loadMaterialsLocked()
	if err != nil {
		return nil, err
	}

	content := &entity.SubtopicContent{Text: string(data)}
	if bucket, ok := materials[topic+"/"+subtopic]; ok {
		content.Images = bucket.Images
		content.Files = bucket.Files
	}
	return content, nil
}

func (r *fileKnowledgeRepository) Search(ctx context.Context, query string) ([]entity.SearchHit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics, err := r.listTopicsLocked()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var hits []entity.SearchHit
	for _, topic := range topics {
		subtopics, err := r.listSubtopicsLocked(topic)
		if err != nil {
			continue
		}
		for _, subtopic := range subtopics {
			data, err := os.ReadFile(filepath.Join(r.textsPath, topic, subtopic+".txt"))
			if err != nil {
				continue
			}
			content := string(data)
			if !strings.Contains(strings.ToLower(content), needle) {
				continue
			}
			hit := entity.SearchHit{Topic: topic, Subtopic: subtopic}
			for _, line := range strings.Split(content, "\n") {
				if strings.Contains(strings.ToLower(line), needle) {
					hit.Lines = append(hit.Lines, line)
				}
			}
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

func (r *fileKnowledgeRepository) ListMaterials(ctx context.Context, topicKey string) ([]entity.Material, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	materials, err := r.loadMaterialsLocked()
	if err != nil {
		return nil, err
	}
	bucket, ok := materials[topicKey]
	if !ok {
		return nil, nil
	}
	combined := make([]entity.Material, 0, len(bucket.Images)+len(bucket.Files))
	combined = append(combined, bucket.Images...)
	combined = append(combined, bucket.Files...)
	return combined, nil
}

func (r *fileKnowledgeRepository) AddMaterial(ctx context.Context, topicKey, path, caption, kind string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	materials, err := r.loadMaterialsLocked()
	if err != nil {
		return "", err
	}
	bucket, ok := materials[topicKey]
	if !ok {
		bucket = &materialBucket{}
		materials[topicKey] = bucket
	}

	material := entity.Material{
		Id:      uuid.New().String(),
		Path:    path,
		Caption: caption,
	}
	if kind != entity.MaterialKindImage {
		material.Kind = kind
	}
	bucket.setList(kind, append(bucket.list(kind), material))

	if err := r.saveMaterialsLocked(materials); err != nil {
		return "", err
	}
	return material.Id, nil
}

func (r *fileKnowledgeRepository) GetMaterial(ctx context.Context, topicKey, id, kind string) (*entity.Material, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	materials, err := r.loadMaterialsLocked()
	if err != nil {
		return nil, err
	}
	bucket, ok := materials[topicKey]
	if !ok {
		return nil, nil
	}
	for _, m := range bucket.list(kind) {
		if m.Id == id {
			found := m
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fileKnowledgeRepository) UpdateMaterial(ctx context.Context, topicKey, id, newCaption, newPath, kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	materials, err := r.loadMaterialsLocked()
	if err != nil {
		return err
	}
	bucket, ok := materials[topicKey]
	if !ok {
		return contract.ErrMaterialNotFound
	}

	items := bucket.list(kind)
	for i := range items {
		if items[i].Id != id {
			continue
		}
		if newCaption != "" {
			items[i].Caption = newCaption
		}
		if newPath != "" {
			// The replaced backing file is gone for good.
			if err := os.Remove(items[i].Path); err != nil && !os.IsNotExist(err) {
				return err
			}
			items[i].Path = newPath
		}
		return r.saveMaterialsLocked(materials)
	}
	return contract.ErrMaterialNotFound
}

func (r *fileKnowledgeRepository) DeleteMaterial(ctx context.Context, topicKey, id, kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	materials, err := r.loadMaterialsLocked()
	if err != nil {
		return err
	}
	bucket, ok := materials[topicKey]
	if !ok {
		return contract.ErrMaterialNotFound
	}

	items := bucket.list(kind)
	for i := range items {
		if items[i].Id != id {
			continue
		}
		if err := os.Remove(items[i].Path); err != nil && !os.IsNotExist(err) {
			return err
		}
		bucket.setList(kind, append(items[:i:i], items[i+1:]...))

		// No empty entries persist in the index.
		if bucket.empty() {
			delete(materials, topicKey)
		}
		return r.saveMaterialsLocked(materials)
	}
	return contract.ErrMaterialNotFound
}

func (r *fileKnowledgeRepository) CreateTextFile(ctx context.Context, text, filename string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := filepath.Join(r.filesPath, filename)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (r *fileKnowledgeRepository) SaveUpload(ctx context.Context, data []byte, filename, kind string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir := r.filesPath
	if kind == entity.MaterialKindImage {
		dir = r.imagesPath
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (r *fileKnowledgeRepository) loadMaterialsLocked() (map[string]*materialBucket, error) {
	data, err := os.ReadFile(r.materialsFile)
	if os.IsNotExist(err) {
		return map[string]*materialBucket{}, nil
	}
	if err != nil {
		return nil, err
	}
	materials := map[string]*materialBucket{}
	if err := json.Unmarshal(data, &materials); err != nil {
		return nil, fmt.Errorf("corrupt materials index %s: %w", r.materialsFile, err)
	}
	return materials, nil
}

func (r *fileKnowledgeRepository) saveMaterialsLocked(materials map[string]*materialBucket) error {
	data, err := json.MarshalIndent(materials, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.materialsFile, data, 0644)
}
