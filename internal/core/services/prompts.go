package services

// Prompt templates for the assistant. Each takes the collected context
// first and the task parameters after.

const answerPrompt = `You are a helpful course assistant. Answer the question using ONLY the provided context. If the context does not contain the answer, say so instead of guessing.

Context:
%s

Question: %s

Answer:`

const assignmentPrompt = `You are a course instructor. Based ONLY on the provided course material, create %d assignment questions of %s difficulty.

Course material:
%s

Return a JSON array where each element has these fields:
- "question_number": sequential number starting at 1
- "question": the question text
- "type": one of "short_answer", "long_answer", "problem"
- "marks": suggested marks for the question
- "marking_scheme": brief marking guidance
- "sample_answer": a model answer

Return ONLY the JSON array, no other text.`

const mcqPrompt = `You are a course instructor. Based ONLY on the provided course material, create %d multiple choice questions of %s difficulty.

Course material:
%s

Return a JSON array where each element has these fields:
- "question_number": sequential number starting at 1
- "question": the question text
- "options": exactly four answer options
- "correct_answer": the correct option text
- "explanation": why that option is correct

Return ONLY the JSON array, no other text.`
