package config

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// QuestionKind определяет тип ожидаемого ответа
type QuestionKind string

const (
	KindText    QuestionKind = "text"
	KindNumber  QuestionKind = "number"
	KindBoolean QuestionKind = "boolean"
)

// QuestionBank представляет набор вопросов теста
type QuestionBank struct {
	Personal []Question `yaml:"personal" json:"personal"`
	Rules    []Question `yaml:"rules" json:"rules"`
	Messages Messages   `yaml:"messages" json:"messages"`
}

// Question представляет один вопрос теста
type Question struct {
	Text     string       `yaml:"text" json:"text"`
	Kind     QuestionKind `yaml:"kind" json:"kind"`
	Expected *bool        `yaml:"expected,omitempty" json:"expected,omitempty"`
}

// questionFields содержит поля вопроса вместе с полями question/type/answer
// старого questions.json
type questionFields struct {
	Text     string `yaml:"text" json:"text"`
	Question string `yaml:"question" json:"question"`
	Kind     string `yaml:"kind" json:"kind"`
	Type     string `yaml:"type" json:"type"`
	Expected *bool  `yaml:"expected" json:"expected"`
	Answer   *bool  `yaml:"answer" json:"answer"`
}

func (f questionFields) question() Question {
	q := Question{
		Text:     firstNonEmpty(f.Text, f.Question),
		Kind:     QuestionKind(firstNonEmpty(f.Kind, f.Type)),
		Expected: f.Expected,
	}
	if q.Expected == nil {
		q.Expected = f.Answer
	}
	return q
}

func (q *Question) UnmarshalYAML(node *yaml.Node) error {
	var raw questionFields
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*q = raw.question()
	return nil
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var raw questionFields
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = raw.question()
	return nil
}

// ExpectedAnswer возвращает правильный ответ на вопрос о правилах
func (q Question) ExpectedAnswer() bool {
	return q.Expected != nil && *q.Expected
}

// Messages содержит все тексты, которые бот отправляет пользователям.
// Строки с глаголами %s/%d форматируются пакетом prompts.
type Messages struct {
	StartCommandDescription  string `yaml:"start_command_description" json:"start_command_description"`
	RatingCommandDescription string `yaml:"rating_command_description" json:"rating_command_description"`
	AlreadyInTest            string `yaml:"already_in_test" json:"already_in_test"`
	TestStarted              string `yaml:"test_started" json:"test_started"`
	AdminOnly                string `yaml:"admin_only" json:"admin_only"`
	RatingChannelSet         string `yaml:"rating_channel_set" json:"rating_channel_set"`
	RateLimited              string `yaml:"rate_limited" json:"rate_limited"`
	ShuttingDown             string `yaml:"shutting_down" json:"shutting_down"`
	QuestionPrompt           string `yaml:"question_prompt" json:"question_prompt"`
	RuleSuffix               string `yaml:"rule_suffix" json:"rule_suffix"`
	InvalidNumber            string `yaml:"invalid_number" json:"invalid_number"`
	InvalidBoolean           string `yaml:"invalid_boolean" json:"invalid_boolean"`
	TimedOut                 string `yaml:"timed_out" json:"timed_out"`
	MistakeLimit             string `yaml:"mistake_limit" json:"mistake_limit"`
	Passed                   string `yaml:"passed" json:"passed"`
	RatingPromptTitle        string `yaml:"rating_prompt_title" json:"rating_prompt_title"`
	RatingPromptBody         string `yaml:"rating_prompt_body" json:"rating_prompt_body"`
	RatingExpired            string `yaml:"rating_expired" json:"rating_expired"`
	AlreadyRated             string `yaml:"already_rated" json:"already_rated"`
	RatingChannelUnset       string `yaml:"rating_channel_unset" json:"rating_channel_unset"`
	RatingChannelUnreachable string `yaml:"rating_channel_unreachable" json:"rating_channel_unreachable"`
	RatingSummaryTitle       string `yaml:"rating_summary_title" json:"rating_summary_title"`
	RatingSummaryBody        string `yaml:"rating_summary_body" json:"rating_summary_body"`
	RatingThanks             string `yaml:"rating_thanks" json:"rating_thanks"`
}

// DefaultMessages возвращает стандартный набор сообщений сервера
func DefaultMessages() Messages {
	return Messages{
		StartCommandDescription:  "ابدأ اختبار التفعيل الخاص بسيرفر رويال ستي العظيم",
		RatingCommandDescription: "تعيين قناة استقبال التقييمات (للمشرفين فقط)",
		AlreadyInTest:            "أنت بالفعل في اختبار! يرجى إكماله أولاً.",
		TestStarted:              "تم بدء الاختبار، سنتواصل معك على الخاص لطرح الأسئلة.",
		AdminOnly:                "يجب أن تكون أدمن لتستخدم هذا الأمر.",
		RatingChannelSet:         "تم تعيين قناة التقييمات: <#%s>",
		RateLimited:              "الرجاء الانتظار قليلاً قبل استخدام الأوامر مرة أخرى.",
		ShuttingDown:             "البوت قيد الإيقاف حالياً، يرجى المحاولة لاحقاً.",
		QuestionPrompt:           "السؤال (%d): %s",
		RuleSuffix:               " (صح/خطأ)",
		InvalidNumber:            "يرجى إدخال رقم صالح.",
		InvalidBoolean:           "يرجى الرد بـ \"صح\" أو \"خطأ\" فقط.",
		TimedOut:                 "انتهى وقت الإجابة، تم إلغاء الاختبار.",
		MistakeLimit:             "لقد تجاوزت الحد الأقصى للأخطاء (%d). تم رفض تفعيلك.",
		Passed:                   "تهانينا! لقد اجتزت الاختبار بنجاح.\nأهلاً بك عزيزي العضو في سيرفر رويال ستي العظيم!",
		RatingPromptTitle:        "مرحباً بك في رويال ستي!",
		RatingPromptBody:         "يسرنا انضمامك إلينا.\nيرجى تقييم تجربة الاختبار الخاص بك باستخدام الأزرار أدناه.",
		RatingExpired:            "هذا التقييم انتهى أو غير موجود.",
		AlreadyRated:             "لقد قمت بالتقييم مسبقاً.",
		RatingChannelUnset:       "لم يتم تعيين قناة التقييمات بعد.",
		RatingChannelUnreachable: "قناة التقييمات غير موجودة أو لا يمكن الوصول إليها.",
		RatingSummaryTitle:       "تقييم اختبار العضو",
		RatingSummaryBody:        "العضو: <@%s>\nالتقييم: %s (%d من 5)",
		RatingThanks:             "شكراً لتقييمك: %s",
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
