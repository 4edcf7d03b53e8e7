// Package service 包含了应用的业务逻辑层。
package service

import (
	"fmt"
	"strings"

	"lesson-smart-go/internal/model"
)

// difficultyGuidance 给出各难度等级对应的写作指导。
var difficultyGuidance = map[string]string{
	model.DifficultyEasy:   "Use simple language, foundational explainers, and concrete everyday examples.",
	model.DifficultyMedium: "Use balanced depth, some technical vocabulary, and 1-2 brief real-world examples.",
	model.DifficultyHard:   "Use advanced terminology, deeper conceptual links, and include extension tasks for high achievers.",
}

const defaultGuidance = "Use balanced language and depth."

// buildLessonPrompt 根据生成请求构建教案提示词。
// 所有用户输入字段都会原样出现在提示词中。
func buildLessonPrompt(req model.LessonRequest) string {
	guidance, ok := difficultyGuidance[req.Difficulty]
	if !ok {
		guidance = defaultGuidance
	}

	var b strings.Builder
	b.WriteString("You are an expert instructional designer and teacher. Create a detailed, classroom-ready LESSON PLAN.\n\n")
	b.WriteString("Constraints & format:\n")
	fmt.Fprintf(&b, "- Write the ENTIRE output in %s.\n", req.Language)
	fmt.Fprintf(&b, "- Tailor to grade/level: %s\n", req.Grade)
	fmt.Fprintf(&b, "- Total duration: %s\n", req.Duration)
	fmt.Fprintf(&b, "- Difficulty level: %s. %s\n", req.Difficulty, guidance)
	b.WriteString("- The lesson must be fun, practical, and interactive.\n")
	b.WriteString("- Return ONLY Markdown (no code fences). Use headings, bullets, and tables where helpful.\n\n")
	b.WriteString("Required sections (use clear Markdown headings):\n")
	b.WriteString("1. Title & Overview (1-2 sentences)\n")
	b.WriteString("2. Learning Objectives (bulleted, measurable)\n")
	b.WriteString("3. Required Materials (bulleted)\n")
	b.WriteString("4. Prior Knowledge (short)\n")
	b.WriteString("5. Lesson Flow with Time Boxes (table: Step | Time | What to do | Teacher notes)\n")
	b.WriteString("6. Interactive Activities (2-3 activities; include clear instructions)\n")
	b.WriteString("7. Differentiation & Accommodations (for mixed ability learners)\n")
	b.WriteString("8. Assessment (formative + one quick exit ticket)\n")
	b.WriteString("9. Homework or Extension\n")
	b.WriteString("10. Safety/Notes (if applicable)\n\n")
	fmt.Fprintf(&b, "Subject: %s\n", req.Subject)
	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	fmt.Fprintf(&b, "Learning Objectives: %s\n", req.Objectives)
	fmt.Fprintf(&b, "Customization request: %s\n", req.Customization)
	return b.String()
}

// buildQuizPrompt 基于已存储的教案正文构建测验提示词。
// 教案正文原样嵌入在 START/END 标记之间。
func buildQuizPrompt(lessonContent, grade, language, difficulty string, numQuestions int) string {
	var b strings.Builder
	b.WriteString("You are an assessment designer. Based ONLY on the lesson plan content below, create a quiz.\n\n")
	fmt.Fprintf(&b, "- Number of questions: %d\n", numQuestions)
	fmt.Fprintf(&b, "- Difficulty: %s\n", difficulty)
	fmt.Fprintf(&b, "- Grade/Level: %s\n", grade)
	fmt.Fprintf(&b, "- Language: %s\n", language)
	b.WriteString("- Mix question types: multiple choice, short answer, and 1 challenge question.\n")
	b.WriteString("- For multiple choice, include 4 options labeled A-D.\n")
	b.WriteString("- Provide an **Answer Key** at the end under a collapsible details block.\n")
	b.WriteString("- Return the quiz as clean Markdown (no code fences).\n\n")
	b.WriteString("LESSON PLAN START\n---\n")
	b.WriteString(lessonContent)
	b.WriteString("\n---\nLESSON PLAN END\n")
	return b.String()
}
