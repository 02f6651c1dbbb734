package constant

// Menu tokens the state machine compares inbound text against.
const (
	TokenSearch       = "Поиск"
	TokenSearchPrefix = "поиск "
	TokenManage       = "Управление материалами"
	TokenIntelligent  = "Интеллектуальная система"
	TokenBack         = "Назад к разделам"
	TokenCancel       = "Отмена"
	TokenYes          = "Да"
	TokenNo           = "Нет"
	TokenShowInstruction = "Показать инструкцию"

	TokenAddText     = "Добавить текст"
	TokenAddImage    = "Добавить изображение"
	TokenUploadFile  = "Загрузить файл"
	TokenAddTopic    = "Добавить раздел"
	TokenAddSubtopic = "Добавить подраздел"
	TokenEdit        = "Редактировать материал"
	TokenDelete      = "Удалить материал"
)

// Reply texts.
const (
	MsgWelcome = `Привет! Я - база знаний для системного аналитика в 1С.

Выбери раздел из меню ниже, напиши "Поиск [запрос]" для поиска информации или "Управление материалами" для редактирования базы знаний.`

	MsgHelp = `Я могу:
- Показать информацию по разделам и подразделам
- Выполнить поиск по материалам
- Добавлять новые разделы и подразделы
- Добавлять новые материалы (текст, изображения и файлы) в подразделы
- Редактировать и удалять материалы

Для управления материалами нажми "Управление материалами"`

	MsgUnknownCommand    = "Не понимаю команду. Выбери раздел из меню или используй 'Поиск'."
	MsgSearchUsage       = "Напиши 'Поиск [запрос]' для поиска информации. Например: 'Поиск Waterfall'"
	MsgSearchEmptyQuery  = "Напиши запрос для поиска после команды 'Поиск'"
	MsgSearchNoResults   = "Ничего не найдено"
	MsgChooseAction      = "Выбери действие:"
	MsgChooseTopic       = "Выбери раздел:"
	MsgChooseSubtopic    = "Выбери подраздел:"
	MsgSessionExpired    = "Сессия устарела. Выбери раздел заново:"
	MsgCancelled         = "Операция отменена."
	MsgActionCancelled   = "Действие отменено."
	MsgDialogInterrupted = "Диалог прерван."
	MsgAnythingElse      = "Чем еще могу помочь?"

	MsgIntelligentIntro = "Опишите вашу проблему, и я постараюсь помочь. Например: 'Не приходит документ на подписание'"
	MsgTopicNotDetected = "Не могу определить тему вашего вопроса. Попробуйте использовать другие слова или обратитесь к разделам базы знаний."
	MsgAnswerYesNo      = "Пожалуйста, ответьте 'Да' или 'Нет'."
	MsgPickOffered      = "Пожалуйста, выберите действие из предложенных вариантов."
	MsgInstructionLost  = "Информация об инструкции не найдена."

	MsgTopicHasNoSubtopics = "В этом разделе нет подразделов. Сначала добавь подраздел."
	MsgPickTopicFromList   = "Пожалуйста, выбери раздел из предложенных вариантов."
	MsgPickSubtopicFromList = "Пожалуйста, выбери подраздел из предложенных вариантов."

	MsgEnterTopicName       = "Введите название нового раздела:"
	MsgEnterSubtopicName    = "Введите название нового подраздела:"
	MsgTopicExists          = "Раздел с таким названием уже существует. Введите другое название:"
	MsgSubtopicExists       = "Подраздел с таким названием уже существует в этом разделе. Введите другое название:"
	MsgTopicAddFailed       = "Ошибка при добавлении раздела. Попробуйте еще раз."
	MsgSubtopicAddFailed    = "Ошибка при добавлении подраздела. Попробуйте еще раз."

	MsgEnterTitle       = "Введи заголовок материала:"
	MsgEnterContent     = "Теперь введи содержание материала:"
	MsgUploadImage      = "Загрузи изображение:"
	MsgUploadFile       = "Загрузи файл:"
	MsgPleaseUploadImage = "Пожалуйста, загрузи изображение."
	MsgPleaseUploadFile  = "Пожалуйста, загрузи файл."
	MsgImageReceived    = "Изображение загружено! Теперь введи подпись:"
	MsgFileReceived     = "Файл загружен! Теперь введи описание:"

	MsgEnterMaterialIDEdit   = "Введи ID материала для редактирования:"
	MsgEnterMaterialIDDelete = "Введи ID материала для удаления:"
	MsgMaterialNotFound      = "Материал с таким ID не найден. Попробуй еще раз:"
	MsgNoMaterialsToEdit     = "В этом подразделе нет материалов для редактирования."
	MsgNoMaterialsToDelete   = "В этом подразделе нет материалов для удаления."
	MsgCaptionUpdated        = "Описание материала успешно обновлено!"
	MsgImageUpdated          = "Изображение материала успешно обновлено!"
	MsgFileUpdated           = "Файл материала успешно обновлен!"
	MsgUpdateFailed          = "Ошибка при обновлении материала."

	MsgChooseTopicAddText     = "Выбери раздел для нового материала:"
	MsgChooseTopicAddImage    = "Выбери раздел для нового изображения:"
	MsgChooseTopicUploadFile  = "Выбери раздел для загрузки файла:"
	MsgChooseTopicAddSubtopic = "Выбери раздел для добавления подраздела:"
	MsgChooseTopicEdit        = "Выбери раздел для редактирования:"
	MsgChooseTopicDelete      = "Выбери раздел для удаления материала:"

	MsgChooseSubtopicAddText    = "Выбери подраздел для добавления текста:"
	MsgChooseSubtopicAddImage   = "Выбери подраздел для добавления изображения:"
	MsgChooseSubtopicUploadFile = "Выбери подраздел для загрузки файла:"
	MsgChooseSubtopicEdit       = "Выбери подраздел для редактирования:"
	MsgChooseSubtopicDelete     = "Выбери подраздел для удаления материала:"

	MsgSubtopicMissing = "Подраздел не найден"
	MsgImageMissing    = "Изображение не найдено: "
	MsgFileMissing     = "Файл не найден: "
	MsgNoDescription   = "Описание раздела отсутствует."
)

// Format strings for replies that interpolate names and ids.
const (
	FmtTopicOverview        = "%s\n\nПодразделы раздела '%s':\n%s\nВыбери подраздел:"
	FmtTopicNoSubtopics     = "%s\n\nВ разделе '%s' пока нет подразделов. Добавь подраздел через меню 'Управление материалами'."
	FmtTopicAdded           = "Раздел '%s' успешно добавлен!"
	FmtSubtopicAdded        = "Подраздел '%s' успешно добавлен в раздел '%s'!"
	FmtTextMaterialAdded    = "Материал '%s' успешно добавлен в подраздел '%s' раздела '%s'! ID: %s"
	FmtUploadAdded          = "Файл успешно добавлен в подраздел '%s' раздела '%s'! ID: %s"
	FmtMaterialDeleted      = "Материал успешно удален из подраздела '%s'!"
	FmtMaterialsForEdit     = "Материалы в подразделе '%s':\n\n%s\n\nВведи ID материала для редактирования:"
	FmtMaterialsForDelete   = "Материалы в подразделе '%s':\n\n%s\n\nВведи ID материала для удаления:"
	FmtCurrentMaterialImage = "Текущий материал: %s\n\nВведи новое описание или отправь новое изображение:"
	FmtCurrentMaterialFile  = "Текущий материал: %s\n\nВведи новое описание или отправь новый файл:"
	FmtMaterialCaption      = "%s\n\nID: %s"
	FmtRecommendInstruction = "\nРекомендую ознакомиться с инструкцией по настройке: '%s'"
)

// MaxReplyRunes caps outbound text; longer replies are truncated before
// sending.
const MaxReplyRunes = 4000
