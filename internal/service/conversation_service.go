package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"kb-assistant-be/internal/constant"
	"kb-assistant-be/internal/dto"
	"kb-assistant-be/internal/entity"
	"kb-assistant-be/internal/pkg/logger"
	"kb-assistant-be/internal/repository/contract"
	"kb-assistant-be/pkg/diagnostic"
	"kb-assistant-be/pkg/events"
	"kb-assistant-be/pkg/store"

	"github.com/google/uuid"
)

// ContentPublisher receives an event for every successful knowledge-base
// mutation. Publishing never blocks the dialog path.
type ContentPublisher interface {
	PublishContent(event events.ContentEvent)
}

// ConversationService runs the dialog state machine. One instance serves
// all users; per-user keyed mutexes keep each user's transitions strictly
// serialized while different users proceed in parallel.
type ConversationService struct {
	knowledge contract.KnowledgeRepository
	sessions  contract.SessionRepository
	engine    *diagnostic.Engine
	publisher ContentPublisher
	log       logger.ILogger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewConversationService(
	knowledge contract.KnowledgeRepository,
	sessions contract.SessionRepository,
	engine *diagnostic.Engine,
	publisher ContentPublisher,
	log logger.ILogger,
) *ConversationService {
	return &ConversationService{
		knowledge: knowledge,
		sessions:  sessions,
		engine:    engine,
		publisher: publisher,
		log:       log,
		locks:     map[string]*sync.Mutex{},
	}
}

func (s *ConversationService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func (s *ConversationService) session(userID string) *store.Session {
	session, ok := s.sessions.Get(userID)
	if !ok {
		session = store.NewSession(userID)
	}
	return session
}

// HandleText processes one inbound text message and returns the ordered
// render instructions for it.
func (s *ConversationService) HandleText(ctx context.Context, userID, text string) ([]dto.Reply, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	session := s.session(userID)
	text = strings.TrimSpace(text)

	var replies []dto.Reply
	var err error

	switch text {
	case "/start":
		replies, err = s.start(ctx, session)
	case "/help":
		replies = []dto.Reply{textReply(constant.MsgHelp)}
	case "/cancel":
		replies, err = s.cancel(ctx, session)
	default:
		replies, err = s.dispatch(ctx, session, text)
	}
	if err != nil {
		return nil, err
	}

	s.sessions.Save(session)
	return truncateAll(replies), nil
}

// HandlePhoto processes an uploaded photo. Outside the two states that
// expect one it is rejected with a hint.
func (s *ConversationService) HandlePhoto(ctx context.Context, userID string, data []byte) ([]dto.Reply, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	session := s.session(userID)

	var replies []dto.Reply
	var err error

	switch session.State {
	case store.StateUploadingImage:
		replies, err = s.storeUpload(ctx, session, data, "", entity.MaterialKindImage)
	case store.StateTypingCaption:
		if session.Flow != nil && session.Flow.Edit != nil && session.Flow.Edit.Kind == entity.MaterialKindImage {
			replies, err = s.replaceMaterialFile(ctx, session, data, "", entity.MaterialKindImage)
			break
		}
		replies = []dto.Reply{textReply(constant.MsgUnknownCommand)}
	case store.StateUploadingFile:
		// Wrong attachment type; stay in the state and ask again.
		replies = []dto.Reply{keyboardReply(constant.MsgPleaseUploadFile, cancelKeyboard())}
	default:
		replies = []dto.Reply{textReply(constant.MsgUnknownCommand)}
	}
	if err != nil {
		return nil, err
	}

	s.sessions.Save(session)
	return truncateAll(replies), nil
}

// HandleDocument processes an uploaded document; filename is the client
// name and may be empty.
func (s *ConversationService) HandleDocument(ctx context.Context, userID string, data []byte, filename string) ([]dto.Reply, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	session := s.session(userID)

	var replies []dto.Reply
	var err error

	switch session.State {
	case store.StateUploadingFile:
		replies, err = s.storeUpload(ctx, session, data, filename, entity.MaterialKindFile)
	case store.StateTypingCaption:
		if session.Flow != nil && session.Flow.Edit != nil && session.Flow.Edit.Kind == entity.MaterialKindFile {
			replies, err = s.replaceMaterialFile(ctx, session, data, filename, entity.MaterialKindFile)
			break
		}
		replies = []dto.Reply{textReply(constant.MsgUnknownCommand)}
	case store.StateUploadingImage:
		// Wrong attachment type; stay in the state and ask again.
		replies = []dto.Reply{keyboardReply(constant.MsgPleaseUploadImage, cancelKeyboard())}
	default:
		replies = []dto.Reply{textReply(constant.MsgUnknownCommand)}
	}
	if err != nil {
		return nil, err
	}

	s.sessions.Save(session)
	return truncateAll(replies), nil
}

func (s *ConversationService) dispatch(ctx context.Context, session *store.Session, text string) ([]dto.Reply, error) {
	switch session.State {
	case store.StateSelectingAction:
		return s.handleMainMenu(ctx, session, text)
	case store.StateSelectingTopic:
		return s.handleTopicSelection(ctx, session, text)
	case store.StateSelectingSubtopic:
		return s.handleSubtopicSelection(ctx, session, text)
	case store.StateAddingTopic:
		return s.handleAddTopic(ctx, session, text)
	case store.StateAddingSubtopic:
		return s.handleAddSubtopic(ctx, session, text)
	case store.StateTypingTitle:
		return s.handleTitle(ctx, session, text)
	case store.StateTypingContent:
		return s.handleContent(ctx, session, text)
	case store.StateUploadingImage:
		if text == constant.TokenCancel {
			return s.cancel(ctx, session)
		}
		return []dto.Reply{textReply(constant.MsgPleaseUploadImage)}, nil
	case store.StateUploadingFile:
		if text == constant.TokenCancel {
			return s.cancel(ctx, session)
		}
		return []dto.Reply{textReply(constant.MsgPleaseUploadFile)}, nil
	case store.StateTypingCaption:
		return s.handleCaption(ctx, session, text)
	case store.StateEditingMaterial:
		return s.handleEditSelection(ctx, session, text)
	case store.StateDeletingMaterial:
		return s.handleDeleteSelection(ctx, session, text)
	case store.StateShowingInstructions:
		return s.handleInstructions(ctx, session, text)
	case store.StateDiagnosticMode:
		return s.handleDiagnostic(ctx, session, text)
	default:
		// Unknown state in a stale session; start over.
		session.Reset()
		return s.mainMenuReply(ctx, constant.MsgSessionExpired)
	}
}

func (s *ConversationService) start(ctx context.Context, session *store.Session) ([]dto.Reply, error) {
	session.Reset()
	return s.mainMenuReply(ctx, constant.MsgWelcome)
}

func (s *ConversationService) cancel(ctx context.Context, session *store.Session) ([]dto.Reply, error) {
	session.Reset()
	return s.mainMenuReply(ctx, constant.MsgCancelled)
}

// mainMenuReply builds a text reply carrying the main keyboard built from
// the current topic list.
func (s *ConversationService) mainMenuReply(ctx context.Context, message string) ([]dto.Reply, error) {
	topics, err := s.knowledge.ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	return []dto.Reply{keyboardReply(message, mainKeyboard(topics))}, nil
}

func (s *ConversationService) handleMainMenu(ctx context.Context, session *store.Session, text string) ([]dto.Reply, error) {
	switch text {
	case constant.TokenAddText, constant.TokenAddImage, constant.TokenUploadFile,
		constant.TokenAddSubtopic, constant.TokenEdit, constant.TokenDelete:
		return s.beginTopicSelection(ctx, session, text)

	case constant.TokenAddTopic:
		session.Flow = &store.MaterialFlow{Action: store.ActionAddTopic}
		session.State = store.StateAddingTopic
		return []dto.Reply{keyboardReply(constant.MsgEnterTopicName, cancelKeyboard())}, nil

	case constant.TokenSearch:
		return []dto.Reply{textReply(constant.MsgSearchUsage)}, nil

	case constant.TokenManage:
		return []dto.Reply{keyboardReply(constant.MsgChooseAction, manageKeyboard())}, nil

	case constant.TokenIntelligent:
		session.Diagnostic = nil
		session.State = store.StateDiagnosticMode
		return []dto.Reply{keyboardReply(constant.MsgIntelligentIntro, cancelKeyboard())}, nil

	case constant.TokenBack:
		session.Topic = ""
		return s.mainMenuReply(ctx, constant.MsgChooseTopic)

	case constant.TokenCancel:
		return s.cancel(ctx, session)
	}

	if strings.HasPrefix(strings.ToLower(text), constant.TokenSearchPrefix) {
		query := strings.TrimSpace(text[len(constant.TokenSearchPrefix):])
		if query == "" {
			return []dto.Reply{textReply(constant.MsgSearchEmptyQuery)}, nil
		}
		return s.search(ctx, query)
	}

	ok, err := s.knowledge.HasTopic(ctx, text)
	if err != nil {
		return nil, err
	}
	if ok {
		return s.showTopicOverview(ctx, session, text)
	}

	return []dto.Reply{textReply(constant.MsgUnknownCommand)}, nil
}

func (s *ConversationService) beginTopicSelection(ctx context.Context, session *store.Session, token string) ([]dto.Reply, error) {
	prompts := map[string]struct {
		action store.Action
		prompt string
	}{
		constant.TokenAddText:     {store.ActionAddText, constant.MsgChooseTopicAddText},
		constant.TokenAddImage:    {store.ActionAddImage, constant.MsgChooseTopicAddImage},
		constant.TokenUploadFile:  {store.ActionUploadFile, constant.MsgChooseTopicUploadFile},
		constant.TokenAddSubtopic: {store.ActionAddSubtopic, constant.MsgChooseTopicAddSubtopic},
		constant.TokenEdit:        {store.ActionEdit, constant.MsgChooseTopicEdit},
		constant.TokenDelete:      {store.ActionDelete, constant.MsgChooseTopicDelete},
	}
	entry := prompts[token]

	session.Flow = &store.MaterialFlow{Action: entry.action}
	session.State = store.StateSelectingTopic

	topics, err := s.knowledge.ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	return []dto.Reply{keyboardReply(entry.prompt, mainKeyboard(topics))}, nil
}

func (s *ConversationService) search(ctx context.Context, query string) ([]dto.Reply, error) {
	hits, err := s.knowledge.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []dto.Reply{textReply(constant.MsgSearchNoResults)}, nil
	}

	var b strings.Builder
	for _, hit := range hits {
		fmt.Fprintf(&b, "Найдено в %s/%s:\n", hit.Topic, hit.Subtopic)
		for _, line := range hit.Lines {
			fmt.Fprintf(&b, "• %s\n", line)
		}
		b.WriteString("\n")
	}
	return []dto.Reply{textReply(strings.TrimRight(b.String(), "\n"))}, nil
}

func (s *ConversationService) showTopicOverview(ctx context.Context, session *store.Session, topic string) ([]dto.Reply, error) {
	description, err := s.knowledge.TopicDescription(ctx, topic)
	if err != nil {
		if !errors.Is(err, contract.ErrTopicNotFound) {
			return nil, err
		}
		description = constant.MsgNoDescription
	}

	subtopics, err := s.knowledge.ListSubtopics(ctx, topic)
	if err != nil {
		return nil, err
	}

	if len(subtopics) == 0 {
		session.Topic = ""
		session.State = store.StateSelectingAction
		return []dto.Reply{textReply(fmt.Sprintf(constant.FmtTopicNoSubtopics, description, topic))}, nil
	}

	session.Topic = topic
	session.State = store.StateSelectingSubtopic

	var list strings.Builder
	for _, subtopic := range subtopics {
		fmt.Fprintf(&list, "• %s\n", subtopic)
	}
	body := fmt.Sprintf(constant.FmtTopicOverview, description, topic, list.String())
	return []dto.Reply{keyboardReply(body, subtopicKeyboard(subtopics))}, nil
}

func (s *ConversationService) handleTopicSelection(ctx context.Context, session *store.Session, text string) ([]dto.Reply, error) {
	if text == constant.TokenCancel {
		return s.cancel(ctx, session)
	}
	if session.Flow == nil {
		session.Reset()
		return s.mainMenuReply(ctx, constant.MsgSessionExpired)
	}

	ok, err := s.knowledge.HasTopic(ctx, text)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []dto.Reply{textReply(constant.MsgPickTopicFromList)}, nil
	}

	session.Flow.Topic = text

	if session.Flow.Action == store.ActionAddSubtopic {
		session.State = store.StateAddingSubtopic
		return []dto.Reply{keyboardReply(constant.MsgEnterSubtopicName, cancelKeyboard())}, nil
	}

	subtopics, err := s.knowledge.ListSubtopics(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(subtopics) == 0 {
		session.Reset()
		return []dto.Reply{textReply(constant.MsgTopicHasNoSubtopics)}, nil
	}

	prompts := map[store.Action]string{
		store.ActionAddText:    constant.MsgChooseSubtopicAddText,
		store.ActionAddImage:   constant.MsgChooseSubtopicAddImage,
		store.ActionUploadFile: constant.MsgChooseSubtopicUploadFile,
		store.ActionEdit:       constant.MsgChooseSubtopicEdit,
		store.ActionDelete:     constant.MsgChooseSubtopicDelete,
	}

	session.State = store.StateSelectingSubtopic
	return []dto.Reply{keyboardReply(prompts[session.Flow.Action], subtopicKeyboard(subtopics))}, nil
}

func (s *ConversationService) handleSubtopicSelection(ctx context.Context, session *store.Session, text string) ([]dto.Reply, error) {
	if text == constant.TokenBack {
		session.Reset()
		return s.mainMenuReply(ctx, constant.MsgChooseTopic)
	}
	if text == constant.TokenCancel {
		return s.cancel(ctx, session)
	}

	if session.Flow != nil && session.Flow.Action != store.ActionNone {
		return s.handleFlowSubtopic(ctx, session, text)
	}

	// Browsing path.
	if session.Topic == "" {
		session.Reset()
		return s.mainMenuReply(ctx, constant.MsgSessionExpired)
	}

	canonical, found, err := s.knowledge.FindSubtopic(ctx, session.Topic, text)
	if err != nil {
		return nil, err
	}
	if !found {
		// Not a subtopic; show the overview again.
		return s.showTopicOverview(ctx, session, session.Topic)
	}

	replies, err := s.renderSubtopic(ctx, session.Topic, canonical)
	if err != nil {
		return nil, err
	}
	session.State = store.StateSelectingAction
	return replies, nil
}

func (s *ConversationService) handleFlowSubtopic(ctx context.Context, session *store.Session, text string) ([]dto.Reply, error) {
	flow := session.Flow

	canonical, found, err := s.knowledge.FindSubtopic(ctx, flow.Topic, text)
	if err != nil {
		return nil, err
	}
	if !found {
		return []dto.Reply{textReply(constant.MsgPickSubtopicFromList)}, nil
	}
	flow.Subtopic = canonical

	switch flow.Action {
	case store.ActionAddText:
		session.State = store.StateTypingTitle
		return []dto.Reply{keyboardReply(constant.MsgEnterTitle, cancelKeyboard())}, nil

	case store.ActionAddImage:
		session.State = store.StateUploadingImage
		return []dto.Reply{keyboardReply(constant.MsgUploadImage, cancelKeyboard())}, nil

	case store.ActionUploadFile:
		session.State = store.StateUploadingFile
		return []dto.Reply{keyboardReply(constant.MsgUploadFile, cancelKeyboard())}, nil

	case store.ActionEdit:
		return s.listMaterialsPrompt(ctx, session, constant.FmtMaterialsForEdit, constant.MsgNoMaterialsToEdit, store.StateEditingMaterial)

	case store.ActionDelete:
		return s.listMaterialsPrompt(ctx, session, constant.FmtMaterialsForDelete, constant.MsgNoMaterialsToDelete, store.StateDeletingMaterial)
	}

	session.Reset()
	return s.mainMenuReply(ctx, constant.MsgChooseTopic)
}

func (s *ConversationService) listMaterialsPrompt(ctx context.Context, session *store.Session, format, emptyMsg string, next store.State) ([]dto.Reply, error) {
	flow := session.Flow
	materials, err := s.knowledge.ListMaterials(ctx, flow.TopicKey())
	if err != nil {
		return nil, err
	}
	if len(materials) == 0 {
		session.Reset()
		return []dto.Reply{textReply(emptyMsg)}, nil
	}

	lines := make([]string, 0, len(materials))
	for _, m := range materials {
		lines = append(lines, fmt.Sprintf("ID: %s - %s", m.Id, m.Caption))
	}

	session.State = next
	body := fmt.Sprintf(format, flow.Subtopic, strings.Join(lines, "\n"))
	return []dto.Reply{keyboardReply(body, cancelKeyboard())}, nil
}

func (s *ConversationService) handleAddTopic(ctx context.Context, session *store.Session, text string) ([]dto.Reply, error) {
	if text == constant.TokenCancel {
		return s.cancel(ctx, session)
	}

	name := strings.TrimSpace(text)
	err := s.knowledge.AddTopic(ctx, name)
	if errors.Is(err, contract.ErrTopicExists) {
		return []dto.Reply{textReply(constant.MsgTopicExists)}, nil
	}
	if err != nil {
		s.log.Error("conversation", "failed to add topic", map[string]interface{}{"topic": name, "error": err.Error()})
		session.Reset()
		return []dto.Reply{textReply(constant.MsgTopicAddFailed)}, nil
	}

	s.publisher.PublishContent(events.NewContentEvent(events.EventTopicAdded, map[string]interface{}{
		"topic": name,
		"user":  session.UserID,
	}))

	session.Reset()
	return s.mainMenuReply(ctx, fmt.Sprintf(constant.FmtTopicAdded, name))
}

func (s *ConversationService) handleAddSubtopic(ctx context.Context, session *store.Session, text string) ([]dto.Reply, error) {
	if text == constant.TokenCancel {
		return s.cancel(ctx, session)
	}
	if session.Flow == nil || session.Flow.Topic == "" {
		session.Reset()
		return s.mainMenuReply(ctx, constant.MsgSessionExpired)
	}
	topic := session.Flow.Topic

	name := strings.TrimSpace(text)
	err := s.knowledge.AddSubtopic(ctx, topic, name)
	if errors.Is(err, contract.ErrSubtopicExists) {
		return []dto.Reply{textReply(constant.MsgSubtopicExists)}, nil
	}
	if err != nil {
		s.log.Error("conversation", "failed to add subtopic", map[string]interface{}{"topic": topic, "subtopic": name, "error": err.Error()})
		session.Reset()
		return []dto.Reply{textReply(constant.MsgSubtopicAddFailed)}, nil
	}

	s.publisher.PublishContent(events.NewContentEvent(events.EventSubtopicAdded, map[string]interface{}{
		"topic":    topic,
		"subtopic": name,
		"user":     session.UserID,
	}))

	session.Reset()
	return s.mainMenuReply(ctx, fmt.Sprintf(constant.FmtSubtopicAdded, name, topic))
}

func (s *ConversationService) handleTitle(ctx context.Context, session *store.Session, text string) ([]dto.Reply, error) {
	if text == constant.TokenCancel {
		return s.cancel(ctx, session)
	}
	if session.Flow == nil {
		session.Reset()
		return s.mainMenuReply(ctx, constant.MsgSessionExpired)
	}
	session.Flow.Title = text
	session.State = store.StateTypingContent
	return []dto.Reply{keyboardReply(constant.MsgEnterContent, cancelKeyboard())}, nil
}

func (s *ConversationService) handleContent(ctx context.Context, session *store.Session, text string) ([]dto.Reply, error) {
	if text == constant.TokenCancel {
		return s.cancel(ctx, session)
	}
	flow := session.Flow
	if flow == nil {
		session.Reset()
		return s.mainMenuReply(ctx, constant.MsgSessionExpired)
	}

	fullText := fmt.Sprintf("%s\n\n%s", flow.Title, text)
	filename := fmt.Sprintf("%s_%s_%s.txt", flow.Topic, flow.Subtopic, shortID())
	path, err := s.knowledge.CreateTextFile(ctx, fullText, filename)
	if err != nil {
		return nil, err
	}

	materialID, err := s.knowledge.AddMaterial(ctx, flow.TopicKey(), path, flow.Title, entity.MaterialKindFile)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishContent(events.NewContentEvent(events.EventMaterialAdded, map[string]interface{}{
		"topic_key":   flow.TopicKey(),
		"material_id": materialID,
		"kind":        entity.MaterialKindFile,
		"user":        session.UserID,
	}))

	confirmation := fmt.Sprintf(constant.FmtTextMaterialAdded, flow.Title, flow.Subtopic, flow.Topic, materialID)
	title := flow.Title
	session.Reset()

	menu, err := s.mainMenuReply(ctx, confirmation)
	if err != nil {
		return nil, err
	}
	return append(menu, dto.Reply{Kind: dto.ReplyDocument, Path: path, Text: title}), nil
}

// storeUpload persists uploaded bytes and moves the flow to captioning.
func (s *ConversationService) storeUpload(ctx context.Context, session *store.Session, data []byte, filename, kind string) ([]dto.Reply, error) {
	flow := session.Flow
	if flow == nil {
		session.Reset()
		return s.mainMenuReply(ctx, constant.MsgSessionExpired)
	}

	if kind == entity.MaterialKindImage {
		filename = fmt.Sprintf("%s_%s_%s.jpg", flow.Topic, flow.Subtopic, shortID())
	} else if filename == "" {
		filename = fmt.Sprintf("%s_%s_%s", flow.Topic, flow.Subtopic, shortID())
	}

	path, err := s.knowledge.SaveUpload(ctx, data, filename, kind)
	if err != nil {
		return nil, err
	}

	flow.UploadPath = path
	flow.UploadKind = kind
	session.State = store.StateTypingCaption

	msg := constant.MsgImageReceived
	if kind == entity.MaterialKindFile {
		msg = constant.MsgFileReceived
	}
	return []dto.Reply{keyboardReply(msg, cancelKeyboard())}, nil
}

func (s *ConversationService) handleCaption(ctx context.Context, session *store.Session, text string) ([]dto.Reply, error) {
	if text == constant.TokenCancel {
		return s.cancel(ctx, session)
	}
	flow := session.Flow
	if flow == nil {
		session.Reset()
		return s.mainMenuReply(ctx, constant.MsgSessionExpired)
	}

	// Editing: the text is the replacement caption.
	if flow.Edit != nil {
		edit := flow.Edit
		err := s.knowledge.UpdateMaterial(ctx, edit.TopicKey, edit.MaterialID, text, "", edit.Kind)
		session.Reset()
		if err != nil {
			s.log.Error("conversation", "failed to update caption", map[string]interface{}{"material_id": edit.MaterialID, "error": err.Error()})
			return s.mainMenuReply(ctx, constant.MsgUpdateFailed)
		}
		s.publisher.PublishContent(events.NewContentEvent(events.EventMaterialUpdated, map[string]interface{}{
			"topic_key":   edit.TopicKey,
			"material_id": edit.MaterialID,
			"field":       "caption",
		}))
		return s.mainMenuReply(ctx, constant.MsgCaptionUpdated)
	}

	// Captioning a fresh upload registers it as a material.
	materialID, err := s.knowledge.AddMaterial(ctx, flow.TopicKey(), flow.UploadPath, text, flow.UploadKind)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishContent(events.NewContentEvent(events.EventMaterialAdded, map[string]interface{}{
		"topic_key":   flow.TopicKey(),
		"material_id": materialID,
		"kind":        flow.UploadKind,
		"user":        session.UserID,
	}))

	confirmation := fmt.Sprintf(constant.FmtUploadAdded, flow.Subtopic, flow.Topic, materialID)
	echo := dto.Reply{Kind: dto.ReplyImage, Path: flow.UploadPath, Text: text}
	if flow.UploadKind == entity.MaterialKindFile {
		echo.Kind = dto.ReplyDocument
	}
	session.Reset()

	menu, err := s.mainMenuReply(ctx, confirmation)
	if err != nil {
		return nil, err
	}
	return append(menu, echo), nil
}

// replaceMaterialFile swaps the backing file of the material under edit.
func (s *ConversationService) replaceMaterialFile(ctx context.Context, session *store.Session, data []byte, filename, kind string) ([]dto.Reply, error) {
	edit := session.Flow.Edit

	if kind == entity.MaterialKindImage {
		filename = fmt.Sprintf("%s_%s.jpg", strings.ReplaceAll(edit.TopicKey, "/", "_"), shortID())
	} else if filename == "" {
		filename = fmt.Sprintf("%s_%s", strings.ReplaceAll(edit.TopicKey, "/", "_"), shortID())
	}

	path, err := s.knowledge.SaveUpload(ctx, data, filename, kind)
	if err != nil {
		return nil, err
	}

	err = s.knowledge.UpdateMaterial(ctx, edit.TopicKey, edit.MaterialID, "", path, kind)
	session.Reset()
	if err != nil {
		s.log.Error("conversation", "failed to replace material file", map[string]interface{}{"material_id": edit.MaterialID, "error": err.Error()})
		return s.mainMenuReply(ctx, constant.MsgUpdateFailed)
	}

	s.publisher.PublishContent(events.NewContentEvent(events.EventMaterialUpdated, map[string]interface{}{
		"topic_key":   edit.TopicKey,
		"material_id": edit.MaterialID,
		"field":       "file",
	}))

	msg := constant.MsgImageUpdated
	if kind == entity.MaterialKindFile {
		msg = constant.MsgFileUpdated
	}
	return s.mainMenuReply(ctx, msg)
}

func (s *ConversationService) handleEditSelection(ctx context.Context, session *store.Session, text string) ([]dto.Reply, error) {
	if text == constant.TokenCancel {
		return s.cancel(ctx, session)
	}
	flow := session.Flow
	if flow == nil {
		session.Reset()
		return s.mainMenuReply(ctx, constant.MsgSessionExpired)
	}

	topicKey := flow.TopicKey()
	kind := entity.MaterialKindImage
	material, err := s.knowledge.GetMaterial(ctx, topicKey, text, kind)
	if err != nil {
		return nil, err
	}
	if material == nil {
		kind = entity.MaterialKindFile
		material, err = s.knowledge.GetMaterial(ctx, topicKey, text, kind)
		if err != nil {
			return nil, err
		}
	}
	if material == nil {
		return []dto.Reply{textReply(constant.MsgMaterialNotFound)}, nil
	}

	flow.Edit = &store.EditContext{MaterialID: material.Id, Kind: kind, TopicKey: topicKey}
	session.State = store.StateTypingCaption

	reply := dto.Reply{
		Kind:     dto.ReplyImage,
		Path:     material.Path,
		Text:     fmt.Sprintf(constant.FmtCurrentMaterialImage, material.Caption),
		Keyboard: cancelKeyboard(),
	}
	if kind == entity.MaterialKindFile {
		reply.Kind = dto.ReplyDocument
		reply.Text = fmt.Sprintf(constant.FmtCurrentMaterialFile, material.Caption)
	}
	return []dto.Reply{reply}, nil
}

func (s *ConversationService) handleDeleteSelection(ctx context.Context, session *store.Session, text string) ([]dto.Reply, error) {
	if text == constant.TokenCancel {
		return s.cancel(ctx, session)
	}
	flow := session.Flow
	if flow == nil {
		session.Reset()
		return s.mainMenuReply(ctx, constant.MsgSessionExpired)
	}

	topicKey := flow.TopicKey()
	err := s.knowledge.DeleteMaterial(ctx, topicKey, text, entity.MaterialKindImage)
	if errors.Is(err, contract.ErrMaterialNotFound) {
		err = s.knowledge.DeleteMaterial(ctx, topicKey, text, entity.MaterialKindFile)
	}
	if errors.Is(err, contract.ErrMaterialNotFound) {
		return []dto.Reply{textReply(constant.MsgMaterialNotFound)}, nil
	}
	if err != nil {
		return nil, err
	}

	s.publisher.PublishContent(events.NewContentEvent(events.EventMaterialDeleted, map[string]interface{}{
		"topic_key":   topicKey,
		"material_id": text,
		"user":        session.UserID,
	}))

	subtopic := flow.Subtopic
	session.Reset()
	return s.mainMenuReply(ctx, fmt.Sprintf(constant.FmtMaterialDeleted, subtopic))
}

func (s *ConversationService) handleInstructions(ctx context.Context, session *store.Session, text string) ([]dto.Reply, error) {
	if text == constant.TokenCancel {
		session.Reset()
		return s.mainMenuReply(ctx, constant.MsgActionCancelled)
	}

	if text != constant.TokenShowInstruction {
		return []dto.Reply{keyboardReply(constant.MsgPickOffered, instructionKeyboard())}, nil
	}

	if session.Instruction == nil {
		return []dto.Reply{keyboardReply(constant.MsgInstructionLost, instructionKeyboard())}, nil
	}

	replies, err := s.renderSubtopic(ctx, session.Instruction.Topic, session.Instruction.Subtopic)
	if err != nil {
		return nil, err
	}
	session.Reset()

	menu, err := s.mainMenuReply(ctx, constant.MsgAnythingElse)
	if err != nil {
		return nil, err
	}
	return append(replies, menu...), nil
}

func (s *ConversationService) handleDiagnostic(ctx context.Context, session *store.Session, text string) ([]dto.Reply, error) {
	if strings.EqualFold(strings.TrimSpace(text), constant.TokenCancel) {
		session.Reset()
		return s.mainMenuReply(ctx, constant.MsgDialogInterrupted)
	}

	if session.Diagnostic == nil || session.Diagnostic.TopicID == "" {
		topic, ok := s.engine.MatchTopic(text)
		if !ok {
			session.Reset()
			return s.mainMenuReply(ctx, constant.MsgTopicNotDetected)
		}
		progress := &store.DiagnosticProgress{}
		outcome := s.engine.Begin(topic, progress)
		session.Diagnostic = progress
		return s.applyDiagnosticOutcome(ctx, session, outcome)
	}

	outcome := s.engine.Advance(session.Diagnostic, text)
	return s.applyDiagnosticOutcome(ctx, session, outcome)
}

func (s *ConversationService) applyDiagnosticOutcome(ctx context.Context, session *store.Session, outcome diagnostic.Outcome) ([]dto.Reply, error) {
	switch outcome.Kind {
	case diagnostic.OutcomeQuestion:
		return []dto.Reply{keyboardReply(outcome.Question, yesNoKeyboard())}, nil

	case diagnostic.OutcomeReprompt:
		text := constant.MsgAnswerYesNo
		if outcome.Question != "" {
			text += "\n\n" + outcome.Question
		}
		return []dto.Reply{keyboardReply(text, yesNoKeyboard())}, nil

	default:
		final := outcome.Final
		if final == "" {
			final = constant.MsgAnythingElse
		}
		session.Diagnostic = nil

		if outcome.Recommend != nil {
			final += fmt.Sprintf(constant.FmtRecommendInstruction, outcome.Recommend.Subtopic)
			session.Instruction = outcome.Recommend
			session.State = store.StateShowingInstructions
			return []dto.Reply{keyboardReply(final, instructionKeyboard())}, nil
		}

		session.Reset()
		return s.mainMenuReply(ctx, final)
	}
}

// renderSubtopic builds the full content render: body text first, then
// each image, then each file. A missing backing file degrades to an
// inline notice for that item only.
func (s *ConversationService) renderSubtopic(ctx context.Context, topic, subtopic string) ([]dto.Reply, error) {
	content, err := s.knowledge.SubtopicContent(ctx, topic, subtopic)
	if errors.Is(err, contract.ErrSubtopicNotFound) {
		return []dto.Reply{textReply(constant.MsgSubtopicMissing)}, nil
	}
	if err != nil {
		return nil, err
	}

	replies := []dto.Reply{textReply(content.Text)}
	for _, image := range content.Images {
		if !fileExists(image.Path) {
			replies = append(replies, textReply(constant.MsgImageMissing+image.Path))
			continue
		}
		replies = append(replies, dto.Reply{
			Kind: dto.ReplyImage,
			Path: image.Path,
			Text: fmt.Sprintf(constant.FmtMaterialCaption, image.Caption, image.Id),
		})
	}
	for _, file := range content.Files {
		if !fileExists(file.Path) {
			replies = append(replies, textReply(constant.MsgFileMissing+file.Path))
			continue
		}
		replies = append(replies, dto.Reply{
			Kind: dto.ReplyDocument,
			Path: file.Path,
			Text: fmt.Sprintf(constant.FmtMaterialCaption, file.Caption, file.Id),
		})
	}
	return replies, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func textReply(text string) dto.Reply {
	return dto.Reply{Kind: dto.ReplyText, Text: text}
}

func keyboardReply(text string, keyboard [][]string) dto.Reply {
	return dto.Reply{Kind: dto.ReplyText, Text: text, Keyboard: keyboard}
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func truncateAll(replies []dto.Reply) []dto.Reply {
	for i := range replies {
		replies[i].Text = truncateRunes(replies[i].Text, constant.MaxReplyRunes)
	}
	return replies
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
